package api

import (
	"bytes"
	"encoding/json"
	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/repositories"
	"github.com/maxaizer/job-tracker/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbCtx, err := repositories.NewDbContext(config.DBConfig{Driver: config.DriverSqlite, ConnectionString: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })

	users := repositories.NewUsersRepository(dbCtx.DB)
	profiles := repositories.NewProfilesRepository(dbCtx.DB)
	jobs := repositories.NewJobsRepository(dbCtx.DB)
	applications := repositories.NewApplicationsRepository(dbCtx.DB)
	settings := repositories.NewCachedSettings(repositories.NewSettingsRepository(dbCtx.DB))

	lifecycle, err := services.NewApplicationLifecycle(services.LifecycleRepositories{
		Users:        users,
		Profiles:     profiles,
		Jobs:         jobs,
		Applications: applications,
		Settings:     settings,
	}, services.NewContentGenerators(config.AIConfig{}), nil, nil, EventBus.New(), time.Second)
	require.NoError(t, err)

	server := NewServer(config.APIConfig{Address: ":0", SessionTTL: time.Hour}, Dependencies{
		Auth:         services.NewAuth(users),
		Profiles:     profiles,
		Jobs:         jobs,
		JobSearch:    services.NewJobSearch(jobs),
		Lifecycle:    lifecycle,
		Applications: applications,
		Settings:     settings,
		Account: services.NewAccount(services.AccountRepositories{
			Users:        users,
			Profiles:     profiles,
			Applications: applications,
			Settings:     settings,
		}),
	})
	return server.Handler()
}

func do(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &value), w.Body.String())
	return value
}

func login(t *testing.T, handler http.Handler, username string) string {
	t.Helper()

	w := do(t, handler, http.MethodPost, "/register", "", credentials{Username: username, Password: "correct horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, handler, http.MethodPost, "/login", "", credentials{Username: username, Password: "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]string](t, w)["token"]
}

func setupApplication(t *testing.T, handler http.Handler, token string) (profileID, applicationID string) {
	t.Helper()

	w := do(t, handler, http.MethodPost, "/profiles", token, models.Profile{
		Name: "Jane Doe", Skills: []string{"Go", " ", "SQL"}, Experience: "5 years",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := decode[models.Profile](t, w)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Skills)

	w = do(t, handler, http.MethodPost, "/jobs", token, models.Job{Title: "Backend Engineer", Company: "Acme"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[models.Job](t, w)

	w = do(t, handler, http.MethodPost, "/applications", token, applyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[struct {
		Application models.Application `json:"application"`
		Warnings    []string           `json:"warnings"`
	}](t, w)
	assert.Contains(t, result.Application.CoverLetter, "Backend Engineer")
	assert.Equal(t, models.StatusApplied, result.Application.Status)

	return profile.ID, result.Application.ID
}

func Test_Server_WhenNoToken_ShouldReject(t *testing.T) {
	handler := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, handler, http.MethodGet, "/profiles", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, handler, http.MethodGet, "/profiles", "unknown", nil).Code)
}

func Test_Server_Login_ShouldFailUniformly(t *testing.T) {
	handler := newTestServer(t)
	login(t, handler, "jane")

	wrongPassword := do(t, handler, http.MethodPost, "/login", "", credentials{Username: "jane", Password: "wrong password"})
	unknownUser := do(t, handler, http.MethodPost, "/login", "", credentials{Username: "john", Password: "correct horse"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func Test_Server_ApplicationFlow(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")
	_, applicationID := setupApplication(t, handler, token)

	w := do(t, handler, http.MethodGet, "/applications?status=applied&company=acm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	applications := decode[[]models.ApplicationDetails](t, w)
	require.Len(t, applications, 1)
	assert.Equal(t, "Acme", applications[0].Company)

	w = do(t, handler, http.MethodGet, "/applications?status=interview", token, nil)
	assert.Empty(t, decode[[]models.ApplicationDetails](t, w))

	w = do(t, handler, http.MethodPut, "/applications/"+applicationID+"/status", token,
		statusRequest{Status: "ghosted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, handler, http.MethodPut, "/applications/"+applicationID+"/status", token,
		statusRequest{Status: "interview", Notes: "call on monday"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, handler, http.MethodGet, "/applications/"+applicationID+"/history", token, nil)
	history := decode[[]models.StatusChange](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusApplied, history[0].FromStatus)
	assert.Equal(t, models.StatusInterview, history[0].ToStatus)

	w = do(t, handler, http.MethodGet, "/stats", token, nil)
	stats := decode[models.Stats](t, w)
	assert.Equal(t, int64(1), stats.TotalApplications)
	assert.Equal(t, int64(1), stats.ActiveProfiles)

	w = do(t, handler, http.MethodGet, "/analytics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	analytics := decode[models.Analytics](t, w)
	assert.Equal(t, int64(1), analytics.StatusDistribution[models.StatusInterview])
	assert.Equal(t, []models.CompanyCount{{Company: "Acme", Count: 1}}, analytics.TopCompanies)
	require.Len(t, analytics.ApplicationsPerDay, 1)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), analytics.ApplicationsPerDay[0].Date)
}

func Test_Server_WhenOtherUsersApplication_ShouldReturnNotFound(t *testing.T) {
	handler := newTestServer(t)
	_, applicationID := setupApplication(t, handler, login(t, handler, "jane"))
	other := login(t, handler, "john")

	w := do(t, handler, http.MethodPut, "/applications/"+applicationID+"/status", other,
		statusRequest{Status: "rejected"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, handler, http.MethodGet, "/applications/"+applicationID+"/history", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, handler, http.MethodGet, "/applications", other, nil)
	assert.Empty(t, decode[[]models.ApplicationDetails](t, w))
}

func Test_Server_Apply_WhenProfileMissing_ShouldReturnNotFound(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")

	w := do(t, handler, http.MethodPost, "/jobs", token, models.Job{Title: "Backend Engineer", Company: "Acme"})
	job := decode[models.Job](t, w)

	w = do(t, handler, http.MethodPost, "/applications", token, applyRequest{JobID: job.ID, ProfileID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"profile not found"}`, w.Body.String())
}

func Test_Server_CreateProfile_WhenSkillsBlank_ShouldReturnBadRequest(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")

	w := do(t, handler, http.MethodPost, "/profiles", token, models.Profile{Name: "Jane Doe", Skills: []string{" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid input"}`, w.Body.String())

	w = do(t, handler, http.MethodGet, "/profiles", token, nil)
	assert.Empty(t, decode[[]models.Profile](t, w))
}

func Test_Server_Settings_ShouldNeverReturnSecrets(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")
	setupApplication(t, handler, token)

	credential := "ai-secret-credential"
	w := do(t, handler, http.MethodPatch, "/settings", token, models.SettingsPatch{
		AICredential: &credential,
		Email:        &models.EmailSettings{FromEmail: "jane@example.com", Password: "smtp-secret-password", Enabled: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "smtp-secret-password")

	w = do(t, handler, http.MethodGet, "/settings", token, nil)
	settings := decode[models.PublicSettings](t, w)
	assert.True(t, settings.AIConfigured)
	assert.Equal(t, models.DefaultSMTPHost, settings.Email.SMTPHost)

	w = do(t, handler, http.MethodGet, "/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), credential)
	assert.NotContains(t, w.Body.String(), "smtp-secret-password")
	assert.Contains(t, w.Body.String(), "Backend Engineer")
}

func Test_Server_Settings_WhenInvalid_ShouldRejectAndKeepStored(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")

	w := do(t, handler, http.MethodPatch, "/settings", token, models.SettingsPatch{
		Automation: &models.AutomationSettings{AutoApply: true, MinMatchScore: 3, DailyLimit: 5},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, handler, http.MethodGet, "/settings", token, nil)
	settings := decode[models.PublicSettings](t, w)
	assert.False(t, settings.Automation.AutoApply)
	assert.Equal(t, models.DefaultMinMatchScore, settings.Automation.MinMatchScore)
}

func Test_Server_DeleteAccount_ShouldRevokeSessions(t *testing.T) {
	handler := newTestServer(t)
	token := login(t, handler, "jane")
	setupApplication(t, handler, token)

	w := do(t, handler, http.MethodDelete, "/account", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusUnauthorized, do(t, handler, http.MethodGet, "/profiles", token, nil).Code)

	w = do(t, handler, http.MethodPost, "/login", "", credentials{Username: "jane", Password: "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, handler, http.MethodPost, "/jobs/search", login(t, handler, "john"), searchRequest{Keywords: "golang"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
