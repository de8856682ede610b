package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-tracker/internal/clients/browser"
	"github.com/maxaizer/job-tracker/internal/domain/events"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

type profileRepository interface {
	GetByID(ctx context.Context, userID, ID string) (*models.Profile, error)
	GetByUser(ctx context.Context, userID string) ([]models.Profile, error)
}

type jobRepository interface {
	GetByID(ctx context.Context, ID string) (*models.Job, error)
}

type applicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	UpdateStatus(ctx context.Context, userID, ID string, status models.Status, notes string) (*models.StatusChange, error)
}

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
}

type userRepository interface {
	GetByID(ctx context.Context, ID string) (*models.User, error)
}

type generatorProvider interface {
	ForUser(ctx context.Context, settings *models.Settings) ContentGenerator
}

type formSubmitter interface {
	Submit(ctx context.Context, submission browser.Submission) error
}

type notifier interface {
	Notify(ctx context.Context, settings models.EmailSettings, recipient, subject, body string) error
}

type LifecycleRepositories struct {
	Users        userRepository
	Profiles     profileRepository
	Jobs         jobRepository
	Applications applicationRepository
	Settings     settingsRepository
}

type ApplyRequest struct {
	JobID     string
	ProfileID string
	Questions []string
	// Submit asks the form agent to fill the job's application page.
	Submit    bool
	Automated bool
}

// ApplyResult carries the stored application and the best-effort steps that
// degraded on the way.
type ApplyResult struct {
	Application *models.Application
	Warnings    []string
}

func (r *ApplyResult) warn(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// ApplicationLifecycle records applications. Content generation, form submission
// and notification are best-effort; only validation and persistence errors fail
// an operation.
type ApplicationLifecycle struct {
	repositories LifecycleRepositories
	generators   generatorProvider
	submitter    formSubmitter
	notifier     notifier
	bus          EventBus.Bus
	applyTimeout time.Duration
}

func NewApplicationLifecycle(repositories LifecycleRepositories, generators generatorProvider,
	submitter formSubmitter, notifier notifier, bus EventBus.Bus, applyTimeout time.Duration) (*ApplicationLifecycle, error) {

	if repositories.Users == nil || repositories.Profiles == nil || repositories.Jobs == nil ||
		repositories.Applications == nil || repositories.Settings == nil {
		return nil, errors.New("all repositories are required")
	}
	if generators == nil {
		return nil, errors.New("generators is nil")
	}
	if bus == nil {
		return nil, errors.New("bus is nil")
	}
	if applyTimeout <= 0 {
		return nil, errors.New("apply timeout must be positive")
	}

	return &ApplicationLifecycle{
		repositories: repositories,
		generators:   generators,
		submitter:    submitter,
		notifier:     notifier,
		bus:          bus,
		applyTimeout: applyTimeout,
	}, nil
}

func (l *ApplicationLifecycle) Apply(ctx context.Context, session models.Session, request ApplyRequest) (*ApplyResult, error) {

	profile, err := l.repositories.Profiles.GetByID(ctx, session.UserID, request.ProfileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}
	if profile == nil {
		return nil, models.ErrProfileNotFound
	}

	job, err := l.repositories.Jobs.GetByID(ctx, request.JobID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get job")
	}
	if job == nil {
		return nil, models.ErrJobNotFound
	}

	result := &ApplyResult{}

	settings, err := l.repositories.Settings.Get(ctx, session.UserID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get settings: %v", err)
		result.warn("settings unavailable, defaults were used")
		settings = models.DefaultSettings(session.UserID)
	}

	user, err := l.repositories.Users.GetByID(ctx, session.UserID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get user: %v", err)
	}
	var email string
	if user != nil {
		email = user.Email
	}

	// generation, submission and notification share one deadline; the write
	// below runs on the caller's context so a slow collaborator never loses it
	stepsCtx, cancel := context.WithTimeout(ctx, l.applyTimeout)
	defer cancel()

	coverLetter, answers := l.generate(stepsCtx, settings, job, profile, request.Questions, result)
	application := models.NewApplication(session.UserID, job, profile, coverLetter, answers, time.Now())

	if request.Submit {
		l.submit(stepsCtx, job, profile, email, application, result)
	}

	if err = l.repositories.Applications.Create(ctx, application); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create application: %v", err)
		return nil, errors.Wrap(err, "failed to create application")
	}
	result.Application = application

	trigger := "manual"
	if request.Automated {
		trigger = "auto"
	}
	metrics.ApplicationsCounter.WithLabelValues(trigger).Inc()
	log.Infof("application %v recorded for job %v", application.ID, job.ID)

	l.bus.Publish(events.ApplicationRecordedTopic, events.ApplicationRecorded{
		Application: *application,
		JobTitle:    job.Title,
		Company:     job.Company,
	})

	emailSettings := settings.Email.Data()
	if emailSettings.Enabled {
		l.notifyApplied(stepsCtx, emailSettings, email, job, application, result)
	}

	return result, nil
}

type generatedContent struct {
	coverLetter string
	answers     map[string]string
}

// generate asks the user's generator for the cover letter and answers. When ctx
// ends first the fallback template is used and the late reply is dropped.
func (l *ApplicationLifecycle) generate(ctx context.Context, settings *models.Settings, job *models.Job,
	profile *models.Profile, questions []string, result *ApplyResult) (string, map[string]string) {

	start := time.Now()
	done := make(chan generatedContent, 1)

	go func() {
		generator := l.generators.ForUser(ctx, settings)
		content := generatedContent{coverLetter: generator.CoverLetter(ctx, job, profile)}
		if len(questions) > 0 {
			content.answers = generator.Answers(ctx, questions, job, profile)
		}
		done <- content
	}()

	select {
	case content := <-done:
		metrics.ApplyStepDuration.WithLabelValues("generation").Observe(time.Since(start).Seconds())
		return content.coverLetter, content.answers
	case <-ctx.Done():
		metrics.CollaboratorFailuresCounter.WithLabelValues("ai").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Warnf("content generation for job %v timed out", job.ID)
		result.warn("content generation timed out, template cover letter used")
		return fallbackContentGenerator{}.CoverLetter(ctx, job, profile), nil
	}
}

func (l *ApplicationLifecycle) submit(ctx context.Context, job *models.Job, profile *models.Profile, email string,
	application *models.Application, result *ApplyResult) {

	if l.submitter == nil || job.URL == "" {
		application.Notes = "Submission unconfirmed: no application form available"
		result.warn("form submission skipped")
		return
	}

	start := time.Now()
	err := l.submitter.Submit(ctx, browser.Submission{
		URL:         job.URL,
		Name:        profile.Name,
		Email:       email,
		Phone:       profile.Phone,
		CoverLetter: application.CoverLetter,
		ResumePath:  profile.ResumePath,
		Answers:     application.CustomAnswers,
	})
	metrics.ApplyStepDuration.WithLabelValues("submission").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CollaboratorFailuresCounter.WithLabelValues("browser").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeBrowser).
			Errorf("form submission for job %v failed: %v", job.ID, err)

		reason := "submission failed"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "submission timed out"
		}
		application.Notes = "Submission unconfirmed: " + reason
		result.warn(reason)
		return
	}

	application.SubmissionConfirmed = true
}

func (l *ApplicationLifecycle) notifyApplied(ctx context.Context, settings models.EmailSettings, recipient string,
	job *models.Job, application *models.Application, result *ApplyResult) {

	if l.notifier == nil {
		return
	}
	if recipient == "" {
		result.warn("notification skipped: no email address")
		return
	}

	subject, body, err := appliedNotification(job, application)
	if err != nil {
		log.Errorf("failed to render notification: %v", err)
		result.warn("notification failed")
		return
	}

	if err = l.notifier.Notify(ctx, settings, recipient, subject, body); err != nil {
		result.warn("notification failed")
	}
}

// UpdateStatus sets any enumerated status. Ids of other users' applications
// resolve to models.ErrNotFound.
func (l *ApplicationLifecycle) UpdateStatus(ctx context.Context, session models.Session, applicationID string,
	status string, notes string) (*models.StatusChange, error) {

	newStatus, err := models.ToStatus(status)
	if err != nil {
		return nil, err
	}

	change, err := l.repositories.Applications.UpdateStatus(ctx, session.UserID, applicationID, newStatus, notes)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update status: %v", err)
		}
		return nil, err
	}

	l.bus.Publish(events.ApplicationStatusChangedTopic, events.ApplicationStatusChanged{
		UserID:        session.UserID,
		ApplicationID: applicationID,
		From:          change.FromStatus,
		To:            change.ToStatus,
		Notes:         notes,
	})
	return change, nil
}
