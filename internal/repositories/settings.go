package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Settings struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *Settings {
	return &Settings{db: db}
}

// Get returns the stored settings or the defaults when the user never saved any.
func (repo *Settings) Get(ctx context.Context, userID string) (*models.Settings, error) {
	return get(repo.db.WithContext(ctx), userID)
}

// Save merges the patch into the stored row, creating it on first save.
func (repo *Settings) Save(ctx context.Context, userID string, patch models.SettingsPatch) (*models.Settings, error) {
	var saved *models.Settings

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := get(tx, userID)
		if err != nil {
			return err
		}

		current.Merge(patch)
		if err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(current).Error; err != nil {
			return err
		}
		saved = current
		return nil
	})

	return saved, err
}

func (repo *Settings) GetAll(ctx context.Context) ([]models.Settings, error) {
	var settings []models.Settings
	if err := repo.db.WithContext(ctx).Order("user_id").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func get(db *gorm.DB, userID string) (*models.Settings, error) {
	var settings models.Settings
	if err := db.First(&settings, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultSettings(userID), nil
		}
		return nil, err
	}
	return &settings, nil
}
