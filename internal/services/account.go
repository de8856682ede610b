package services

import (
	"context"
	"encoding/json"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

type accountUserRepository interface {
	Delete(ctx context.Context, userID string) error
}

type accountApplicationRepository interface {
	List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.ApplicationDetails, error)
	Stats(ctx context.Context, userID string) (models.Stats, error)
	Analytics(ctx context.Context, userID string) (models.Analytics, error)
}

type accountSettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Invalidate(userID string)
}

type AccountRepositories struct {
	Users        accountUserRepository
	Profiles     profileRepository
	Applications accountApplicationRepository
	Settings     accountSettingsRepository
}

// Export is the document a user can download. It never carries credentials.
type Export struct {
	Profiles     []models.Profile            `json:"profiles"`
	Applications []models.ApplicationDetails `json:"applications"`
	Settings     models.PublicSettings       `json:"settings"`
	ExportedAt   time.Time                   `json:"exported_at"`
}

type Account struct {
	repositories AccountRepositories
}

func NewAccount(repositories AccountRepositories) *Account {
	return &Account{repositories: repositories}
}

func (a *Account) Export(ctx context.Context, session models.Session) ([]byte, error) {
	profiles, err := a.repositories.Profiles.GetByUser(ctx, session.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profiles")
	}

	applications, err := a.repositories.Applications.List(ctx, session.UserID, models.ApplicationFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get applications")
	}

	settings, err := a.repositories.Settings.Get(ctx, session.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get settings")
	}

	return json.MarshalIndent(Export{
		Profiles:     profiles,
		Applications: applications,
		Settings:     settings.Public(),
		ExportedAt:   time.Now().UTC(),
	}, "", "  ")
}

// Delete removes the account with everything it owns.
func (a *Account) Delete(ctx context.Context, session models.Session) error {
	if err := a.repositories.Users.Delete(ctx, session.UserID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to delete user: %v", err)
		return errors.Wrap(err, "failed to delete user")
	}
	a.repositories.Settings.Invalidate(session.UserID)
	log.Infof("user %v deleted", session.UserID)
	return nil
}

func (a *Account) Stats(ctx context.Context, session models.Session) (models.Stats, error) {
	return a.repositories.Applications.Stats(ctx, session.UserID)
}

func (a *Account) Analytics(ctx context.Context, session models.Session) (models.Analytics, error) {
	return a.repositories.Applications.Analytics(ctx, session.UserID)
}

func (a *Account) RecentApplications(ctx context.Context, session models.Session, limit int) ([]models.ApplicationDetails, error) {
	return a.repositories.Applications.List(ctx, session.UserID, models.ApplicationFilter{Limit: limit})
}
