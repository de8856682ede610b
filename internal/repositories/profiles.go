package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"gorm.io/gorm"
)

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

func (repo *Profiles) Add(ctx context.Context, profile *models.Profile) error {
	return repo.db.WithContext(ctx).Create(profile).Error
}

func (repo *Profiles) GetByID(ctx context.Context, userID, ID string) (*models.Profile, error) {
	var profile models.Profile
	err := repo.db.WithContext(ctx).First(&profile, "id = ? AND user_id = ?", ID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (repo *Profiles) GetByUser(ctx context.Context, userID string) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := repo.db.WithContext(ctx).Order("created_at").
		Find(&profiles, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (repo *Profiles) Remove(ctx context.Context, userID, ID string) error {
	res := repo.db.WithContext(ctx).Delete(&models.Profile{}, "id = ? AND user_id = ?", ID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
