package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

const cleanupSchedule = "0 0 * * *"

type JobCleanupRepository interface {
	RemoveStale(ctx context.Context, expirationTime time.Time) (int64, error)
}

// JobsCleaner removes old jobs nobody applied to once a day.
type JobsCleaner struct {
	jobs   JobCleanupRepository
	maxAge time.Duration
	now    func() time.Time
	task   *scheduledTask
}

func NewJobsCleaner(jobs JobCleanupRepository, expirationInDays int) (*JobsCleaner, error) {
	if expirationInDays <= 0 {
		return nil, errors.New("expiration in days must be greater than zero")
	}

	cleaner := &JobsCleaner{
		jobs:   jobs,
		maxAge: time.Duration(expirationInDays) * 24 * time.Hour,
		now:    time.Now,
	}

	task, err := startScheduledTask("jobs cleaner", cleanupSchedule, func(ctx context.Context) {
		_, _ = cleaner.Clean(ctx)
	})
	if err != nil {
		return nil, err
	}
	cleaner.task = task
	return cleaner, nil
}

// Clean removes the jobs posted before the expiration age and returns how many.
func (c *JobsCleaner) Clean(ctx context.Context) (int64, error) {
	removed, err := c.jobs.RemoveStale(ctx, c.now().Add(-c.maxAge))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to remove stale jobs: %v", err)
		return 0, err
	}
	log.Infof("removed %d stale jobs older than %v", removed, c.maxAge)
	return removed, nil
}

func (c *JobsCleaner) Stop() {
	c.task.Stop()
}
