package api

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type authenticator interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.Session, error)
}

type profileRepository interface {
	Add(ctx context.Context, profile *models.Profile) error
	GetByUser(ctx context.Context, userID string) ([]models.Profile, error)
	Remove(ctx context.Context, userID, ID string) error
}

type jobRepository interface {
	List(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
}

type jobSearch interface {
	Search(ctx context.Context, keywords, location string, limit int) ([]models.Job, error)
	AddManual(ctx context.Context, job models.Job) (*models.Job, error)
}

type lifecycle interface {
	Apply(ctx context.Context, session models.Session, request services.ApplyRequest) (*services.ApplyResult, error)
	UpdateStatus(ctx context.Context, session models.Session, applicationID string, status string,
		notes string) (*models.StatusChange, error)
}

type applicationRepository interface {
	List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.ApplicationDetails, error)
	History(ctx context.Context, userID, ID string) ([]models.StatusChange, error)
	SetResponseReceived(ctx context.Context, userID, ID string, received bool) error
}

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Save(ctx context.Context, userID string, patch models.SettingsPatch) (*models.Settings, error)
}

type account interface {
	Export(ctx context.Context, session models.Session) ([]byte, error)
	Delete(ctx context.Context, session models.Session) error
	Stats(ctx context.Context, session models.Session) (models.Stats, error)
	Analytics(ctx context.Context, session models.Session) (models.Analytics, error)
}

type Dependencies struct {
	Auth         authenticator
	Profiles     profileRepository
	Jobs         jobRepository
	JobSearch    jobSearch
	Lifecycle    lifecycle
	Applications applicationRepository
	Settings     settingsRepository
	Account      account
}

type Server struct {
	deps     Dependencies
	sessions *Sessions
	router   *gin.Engine
	http     *http.Server
}

func NewServer(cfg config.APIConfig, deps Dependencies) *Server {
	s := &Server{deps: deps, sessions: NewSessions(cfg.SessionTTL)}

	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware())

	router.POST("/register", s.register)
	router.POST("/login", s.login)

	protected := router.Group("/", authMiddleware(s.sessions))
	protected.POST("/logout", s.logout)

	protected.GET("/profiles", s.listProfiles)
	protected.POST("/profiles", s.createProfile)
	protected.DELETE("/profiles/:id", s.deleteProfile)

	protected.GET("/jobs", s.listJobs)
	protected.POST("/jobs", s.addManualJob)
	protected.POST("/jobs/search", s.searchJobs)

	protected.POST("/applications", s.apply)
	protected.GET("/applications", s.listApplications)
	protected.PUT("/applications/:id/status", s.updateStatus)
	protected.PUT("/applications/:id/response", s.setResponseReceived)
	protected.GET("/applications/:id/history", s.history)

	protected.GET("/stats", s.stats)
	protected.GET("/analytics", s.analytics)
	protected.GET("/settings", s.getSettings)
	protected.PATCH("/settings", s.patchSettings)
	protected.GET("/export", s.export)
	protected.DELETE("/account", s.deleteAccount)

	s.router = router
	s.http = &http.Server{Addr: cfg.Address, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run blocks until the server is shut down.
func (s *Server) Run() error {
	log.Infof("api listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
