package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"strings"
)

type credentialsRepository interface {
	Add(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type registration struct {
	Username string `validate:"required,min=3,max=50,alphanum"`
	Password string `validate:"required,min=8,max=72"`
	Email    string `validate:"omitempty,email"`
}

// dummyHash is compared against when the user does not exist so both failure
// paths cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("job-tracker-dummy-password"), bcrypt.DefaultCost)

type Auth struct {
	users credentialsRepository
}

func NewAuth(users credentialsRepository) *Auth {
	return &Auth{users: users}
}

func (a *Auth) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := models.Validate(registration{Username: username, Password: password, Email: email}); err != nil {
		return nil, err
	}

	existing, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get user: %v", err)
		return nil, models.ErrRegistrationFailed
	}
	if existing != nil {
		return nil, models.ErrRegistrationFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{Username: username, PasswordHash: string(hash), Email: email}
	if err = a.users.Add(ctx, user); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to add user: %v", err)
		return nil, models.ErrRegistrationFailed
	}

	log.Infof("user %v registered", user.ID)
	return user, nil
}

// Authenticate reports models.ErrInvalidCredentials for every kind of failure.
func (a *Auth) Authenticate(ctx context.Context, username, password string) (models.Session, error) {
	user, err := a.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get user: %v", err)
	}

	hash := dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user == nil {
		return models.Session{}, models.ErrInvalidCredentials
	}
	return models.NewSession(user.ID, user.Username), nil
}
