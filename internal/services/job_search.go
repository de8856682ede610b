package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
	"time"
)

type JobProvider interface {
	Name() string
	Search(ctx context.Context, keywords, location string, limit int) ([]models.Job, error)
}

type jobStore interface {
	Add(ctx context.Context, job *models.Job) error
}

var ErrNoProviders = errors.New("no job providers available")

const maxSearchLimit = 100

type JobSearch struct {
	providers []JobProvider
	jobs      jobStore
}

func NewJobSearch(jobs jobStore, providers ...JobProvider) *JobSearch {
	return &JobSearch{jobs: jobs, providers: providers}
}

// Search queries every provider, keeps the results that carry a title, company
// and url, and stores them. A failing provider is skipped unless all of them fail.
func (s *JobSearch) Search(ctx context.Context, keywords, location string, limit int) ([]models.Job, error) {

	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}
	if strings.TrimSpace(keywords) == "" {
		return nil, errors.Wrap(models.ErrValidation, "keywords are required")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var found []models.Job
	var failed int

	for _, provider := range s.providers {
		jobs, err := provider.Search(ctx, keywords, location, limit)
		if err != nil {
			failed++
			metrics.CollaboratorFailuresCounter.WithLabelValues(provider.Name()).Inc()
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeHhApi).
				Errorf("%s search failed: %v", provider.Name(), err)
			continue
		}
		found = append(found, jobs...)
	}

	if failed == len(s.providers) {
		return nil, errors.New("job search is unavailable")
	}

	stored := make([]models.Job, 0, len(found))
	for _, job := range found {
		if job.URL == "" || job.Validate() != nil {
			log.Debugf("skipping incomplete job %q from %s", job.Title, job.Source)
			continue
		}
		if err := s.jobs.Add(ctx, &job); err != nil {
			return nil, errors.Wrap(err, "failed to store job")
		}
		stored = append(stored, job)
		if len(stored) == limit {
			break
		}
	}

	return stored, nil
}

// AddManual stores a job entered by hand.
func (s *JobSearch) AddManual(ctx context.Context, job models.Job) (*models.Job, error) {
	job.ID = ""
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	job.Source = models.SourceManual
	job.MatchScore = models.NeutralMatchScore
	if job.PostedDate.IsZero() {
		job.PostedDate = time.Now().UTC()
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	if err := s.jobs.Add(ctx, &job); err != nil {
		return nil, errors.Wrap(err, "failed to store job")
	}
	return &job, nil
}
