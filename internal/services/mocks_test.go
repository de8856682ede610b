package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/clients/browser"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type mockAiClient struct {
	mock.Mock
}

func (m *mockAiClient) GenerateResponse(ctx context.Context, request string) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, submission browser.Submission) error {
	args := m.Called(ctx, submission)
	if f, ok := args.Get(0).(func(ctx context.Context) error); ok {
		return f(ctx)
	}
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, settings models.EmailSettings, recipient, subject, body string) error {
	return m.Called(ctx, settings, recipient, subject, body).Error(0)
}

// staticGenerators always hands out the same generator.
type staticGenerators struct {
	generator ContentGenerator
}

func (g staticGenerators) ForUser(context.Context, *models.Settings) ContentGenerator {
	return g.generator
}

type failingApplications struct {
	*repositories.Applications
}

func (f failingApplications) Create(context.Context, *models.Application) error {
	return errors.New("disk I/O error")
}

type testStore struct {
	users        *repositories.Users
	profiles     *repositories.Profiles
	jobs         *repositories.Jobs
	applications *repositories.Applications
	settings     *repositories.CachedSettings
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	dbCtx, err := repositories.NewDbContext(config.DBConfig{Driver: config.DriverSqlite, ConnectionString: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })

	return &testStore{
		users:        repositories.NewUsersRepository(dbCtx.DB),
		profiles:     repositories.NewProfilesRepository(dbCtx.DB),
		jobs:         repositories.NewJobsRepository(dbCtx.DB),
		applications: repositories.NewApplicationsRepository(dbCtx.DB),
		settings:     repositories.NewCachedSettings(repositories.NewSettingsRepository(dbCtx.DB)),
	}
}

func (s *testStore) lifecycleRepositories() LifecycleRepositories {
	return LifecycleRepositories{
		Users:        s.users,
		Profiles:     s.profiles,
		Jobs:         s.jobs,
		Applications: s.applications,
		Settings:     s.settings,
	}
}

func (s *testStore) addUser(t *testing.T, username string) models.Session {
	user := &models.User{Username: username, PasswordHash: "hash", Email: username + "@example.com"}
	require.NoError(t, s.users.Add(context.Background(), user))
	return models.NewSession(user.ID, user.Username)
}

func (s *testStore) addProfile(t *testing.T, userID string, skills ...string) *models.Profile {
	profile := &models.Profile{
		UserID:     userID,
		Name:       "Jane Doe",
		Skills:     skills,
		Experience: "5 years of backend development",
		Summary:    "Backend developer who likes databases.",
	}
	require.NoError(t, s.profiles.Add(context.Background(), profile))
	return profile
}

func (s *testStore) addJob(t *testing.T, title, company, url string) *models.Job {
	job := &models.Job{
		Title:      title,
		Company:    company,
		URL:        url,
		Source:     models.SourceManual,
		PostedDate: time.Now().UTC(),
		MatchScore: models.NeutralMatchScore,
	}
	require.NoError(t, s.jobs.Add(context.Background(), job))
	return job
}

func (s *testStore) countApplications(t *testing.T, userID string) int {
	applications, err := s.applications.List(context.Background(), userID, models.ApplicationFilter{})
	require.NoError(t, err)
	return len(applications)
}
