package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (repo *Users) Add(ctx context.Context, user *models.User) error {
	return repo.db.WithContext(ctx).Create(user).Error
}

func (repo *Users) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := repo.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (repo *Users) GetByID(ctx context.Context, ID string) (*models.User, error) {
	var user models.User
	if err := repo.db.WithContext(ctx).First(&user, "id = ?", ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Delete removes the user with every row they own. Jobs are shared and stay.
func (repo *Users) Delete(ctx context.Context, userID string) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []any{
			&models.StatusChange{},
			&models.Application{},
			&models.Profile{},
			&models.Settings{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
}
