package repositories

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestDbContext(t *testing.T) *DbContext {
	t.Helper()

	dbCtx, err := NewDbContext(config.DBConfig{Driver: config.DriverSqlite, ConnectionString: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())

	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

type fixture struct {
	users        *Users
	profiles     *Profiles
	jobs         *Jobs
	applications *Applications
	settings     *Settings
}

func newFixture(t *testing.T) *fixture {
	dbCtx := newTestDbContext(t)
	return &fixture{
		users:        NewUsersRepository(dbCtx.DB),
		profiles:     NewProfilesRepository(dbCtx.DB),
		jobs:         NewJobsRepository(dbCtx.DB),
		applications: NewApplicationsRepository(dbCtx.DB),
		settings:     NewSettingsRepository(dbCtx.DB),
	}
}

func (f *fixture) addUser(t *testing.T, username string) *models.User {
	user := &models.User{Username: username, PasswordHash: "hash", Email: username + "@example.com"}
	require.NoError(t, f.users.Add(context.Background(), user))
	return user
}

func (f *fixture) addProfile(t *testing.T, userID, name string) *models.Profile {
	profile := &models.Profile{UserID: userID, Name: name, Skills: []string{"Go", "SQL"}}
	require.NoError(t, f.profiles.Add(context.Background(), profile))
	return profile
}

func (f *fixture) addJob(t *testing.T, title, company string) *models.Job {
	job := &models.Job{
		Title:      title,
		Company:    company,
		URL:        "https://example.com/jobs/" + title,
		Source:     models.SourceManual,
		PostedDate: time.Now().UTC(),
		MatchScore: models.NeutralMatchScore,
	}
	require.NoError(t, f.jobs.Add(context.Background(), job))
	return job
}

func (f *fixture) addApplication(t *testing.T, userID string, job *models.Job, profile *models.Profile,
	appliedAt time.Time) *models.Application {

	application := models.NewApplication(userID, job, profile, "cover letter", nil, appliedAt)
	require.NoError(t, f.applications.Create(context.Background(), application))
	return application
}
