package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

var ErrSweepInProgress = errors.New("automation sweep is already running")

type allSettingsRepository interface {
	GetAll(ctx context.Context) ([]models.Settings, error)
}

type candidateJobRepository interface {
	GetNotAppliedBy(ctx context.Context, userID string, limit int) ([]models.Job, error)
	UpdateMatchScore(ctx context.Context, ID string, score float64) error
}

type applicationCounter interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

type AutoApplierRepositories struct {
	Settings     allSettingsRepository
	Profiles     profileRepository
	Jobs         candidateJobRepository
	Applications applicationCounter
}

type applier interface {
	Apply(ctx context.Context, session models.Session, request ApplyRequest) (*ApplyResult, error)
}

// AutoApplier periodically applies to stored jobs on behalf of users who enabled
// auto apply. Sweeps never overlap.
type AutoApplier struct {
	repositories AutoApplierRepositories
	generators   generatorProvider
	applier      applier
	jobsPerSweep int
	schedule     string
	task         *scheduledTask
	running      sync.Mutex
	now          func() time.Time
}

func NewAutoApplier(repositories AutoApplierRepositories, generators generatorProvider, applier applier,
	cfg config.AutomationConfig) (*AutoApplier, error) {

	if cfg.JobsPerSweep <= 0 {
		return nil, errors.New("jobs per sweep must be greater than zero")
	}

	return &AutoApplier{
		repositories: repositories,
		generators:   generators,
		applier:      applier,
		jobsPerSweep: cfg.JobsPerSweep,
		schedule:     cfg.Schedule,
		now:          time.Now,
	}, nil
}

func (a *AutoApplier) Start() error {
	task, err := startScheduledTask("auto applier", a.schedule, func(ctx context.Context) {
		if _, err := a.Run(ctx); err != nil {
			log.Errorf("automation sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	a.task = task
	return nil
}

// Stop cancels a sweep in progress and waits for it to return.
func (a *AutoApplier) Stop() {
	if a.task != nil {
		a.task.Stop()
	}
}

// Run performs one sweep and returns the number of recorded applications.
func (a *AutoApplier) Run(ctx context.Context) (int, error) {
	if !a.running.TryLock() {
		return 0, ErrSweepInProgress
	}
	defer a.running.Unlock()

	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	all, err := a.repositories.Settings.GetAll(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get settings: %v", err)
		return 0, err
	}

	total := 0
	for _, settings := range all {
		if !settings.Automation.Data().AutoApply {
			continue
		}
		if err = ctx.Err(); err != nil {
			return total, err
		}
		total += a.sweepUser(ctx, &settings)
	}

	log.Infof("automation sweep recorded %d applications in %v", total, time.Since(start))
	return total, nil
}

func (a *AutoApplier) sweepUser(ctx context.Context, settings *models.Settings) int {
	userID := settings.UserID
	automation := settings.Automation.Data()

	now := a.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	appliedToday, err := a.repositories.Applications.CountSince(ctx, userID, dayStart)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to count applications: %v", err)
		return 0
	}
	remaining := automation.DailyLimit - int(appliedToday)
	if remaining <= 0 {
		log.Debugf("daily limit reached for user %v", userID)
		return 0
	}

	profiles, err := a.repositories.Profiles.GetByUser(ctx, userID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get profiles: %v", err)
		return 0
	}
	if len(profiles) == 0 {
		return 0
	}
	profile := &profiles[0]

	jobs, err := a.repositories.Jobs.GetNotAppliedBy(ctx, userID, a.jobsPerSweep)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get jobs: %v", err)
		return 0
	}

	generator := a.generators.ForUser(ctx, settings)
	session := models.NewSession(userID, "")

	applied := 0
	for i := range jobs {
		if applied >= remaining || ctx.Err() != nil {
			break
		}
		job := &jobs[i]

		score := generator.MatchScore(ctx, job, profile)
		if err = a.repositories.Jobs.UpdateMatchScore(ctx, job.ID, score); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update match score: %v", err)
		}
		if score < automation.MinMatchScore {
			continue
		}

		result, err := a.applier.Apply(ctx, session, ApplyRequest{
			JobID:     job.ID,
			ProfileID: profile.ID,
			Submit:    true,
			Automated: true,
		})
		if err != nil {
			log.Errorf("auto apply to job %v failed: %v", job.ID, err)
			continue
		}
		if len(result.Warnings) > 0 {
			log.Warnf("auto apply to job %v: %v", job.ID, result.Warnings)
		}
		applied++
	}
	return applied
}
