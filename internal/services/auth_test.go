package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_Auth_RegisterAndAuthenticate(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuth(store.users)

	user, err := auth.Register(context.Background(), "jane", "correct horse", "jane@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	session, err := auth.Authenticate(context.Background(), "jane", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "jane", session.Username)
}

func Test_Auth_Authenticate_ShouldFailUniformly(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuth(store.users)
	_, err := auth.Register(context.Background(), "jane", "correct horse", "")
	require.NoError(t, err)

	_, wrongPassword := auth.Authenticate(context.Background(), "jane", "wrong password")
	_, unknownUser := auth.Authenticate(context.Background(), "john", "correct horse")

	assert.ErrorIs(t, wrongPassword, models.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, models.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func Test_Auth_Register_WhenDuplicateOrInvalid_ShouldFail(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuth(store.users)

	_, err := auth.Register(context.Background(), "jane", "correct horse", "")
	require.NoError(t, err)

	_, err = auth.Register(context.Background(), "jane", "another password", "")
	assert.ErrorIs(t, err, models.ErrRegistrationFailed)

	_, err = auth.Register(context.Background(), "x", "short", "not an email")
	assert.ErrorIs(t, err, models.ErrValidation)
}
