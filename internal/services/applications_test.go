package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-tracker/internal/clients/browser"
	"github.com/maxaizer/job-tracker/internal/domain/events"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestLifecycle(t *testing.T, repositories LifecycleRepositories, submitter formSubmitter,
	notifier notifier) (*ApplicationLifecycle, EventBus.Bus) {

	bus := EventBus.New()
	lifecycle, err := NewApplicationLifecycle(repositories, staticGenerators{fallbackContentGenerator{}},
		submitter, notifier, bus, time.Second)
	require.NoError(t, err)
	return lifecycle, bus
}

func enableEmail(t *testing.T, store *testStore, userID string) {
	_, err := store.settings.Save(context.Background(), userID, models.SettingsPatch{
		Email: &models.EmailSettings{FromEmail: "me@example.com", Password: "pwd", Enabled: true},
	})
	require.NoError(t, err)
}

func Test_Apply_WhenGeneratorUnavailable_ShouldRecordFallbackCoverLetter(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Python", "SQL")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), nil, nil)

	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusApplied, stored.Status)
	assert.Contains(t, stored.CoverLetter, "Backend Engineer")
	assert.Contains(t, stored.CoverLetter, "Acme")
	assert.False(t, stored.SubmissionConfirmed)
	assert.Equal(t, 1, store.countApplications(t, session.UserID))
}

func Test_Apply_WhenProfileOrJobMissing_ShouldCreateNothing(t *testing.T) {
	store := newTestStore(t)
	owner := store.addUser(t, "owner")
	stranger := store.addUser(t, "stranger")
	profile := store.addProfile(t, owner.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), nil, nil)

	_, err := lifecycle.Apply(context.Background(), stranger, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	_, err = lifecycle.Apply(context.Background(), owner, ApplyRequest{JobID: "missing", ProfileID: profile.ID})
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	assert.Equal(t, 0, store.countApplications(t, owner.UserID))
	assert.Equal(t, 0, store.countApplications(t, stranger.UserID))
}

func Test_Apply_WhenPersistenceFails_ShouldCreateNothingAndPublishNothing(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	repositories := store.lifecycleRepositories()
	repositories.Applications = failingApplications{store.applications}
	notifier := &mockNotifier{}
	lifecycle, bus := newTestLifecycle(t, repositories, nil, notifier)
	enableEmail(t, store, session.UserID)

	published := 0
	require.NoError(t, bus.Subscribe(events.ApplicationRecordedTopic, func(events.ApplicationRecorded) { published++ }))

	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, published)
	assert.Equal(t, 0, store.countApplications(t, session.UserID))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_Apply_WhenNotificationFails_ShouldStillSucceed(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")
	enableEmail(t, store, session.UserID)

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything, "jane@example.com",
		"Job Application Submitted - Backend Engineer", mock.Anything).
		Return(errors.New("535 authentication failed"))

	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), nil, notifier)

	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "notification failed")

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, stored.Status)
	notifier.AssertExpectations(t)
}

func Test_Apply_WhenEmailDisabled_ShouldNotNotify(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	notifier := &mockNotifier{}
	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), nil, notifier)

	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_Apply_WhenSubmissionSucceeds_ShouldConfirm(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "https://jobs.example.com/1")

	submitter := &mockSubmitter{}
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(s browser.Submission) bool {
		return s.URL == job.URL && s.Name == "Jane Doe" && s.Email == "jane@example.com"
	})).Return(nil)

	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), submitter, nil)

	result, err := lifecycle.Apply(context.Background(), session,
		ApplyRequest{JobID: job.ID, ProfileID: profile.ID, Submit: true})
	require.NoError(t, err)

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	assert.True(t, stored.SubmissionConfirmed)
	assert.Empty(t, stored.Notes)
	submitter.AssertExpectations(t)
}

func Test_Apply_WhenSubmissionTimesOut_ShouldRecordUnconfirmed(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "https://jobs.example.com/1")

	submitter := &mockSubmitter{}
	submitter.On("Submit", mock.Anything, mock.Anything).Return(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	bus := EventBus.New()
	lifecycle, err := NewApplicationLifecycle(store.lifecycleRepositories(), staticGenerators{fallbackContentGenerator{}},
		submitter, nil, bus, 50*time.Millisecond)
	require.NoError(t, err)

	result, err := lifecycle.Apply(context.Background(), session,
		ApplyRequest{JobID: job.ID, ProfileID: profile.ID, Submit: true})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "submission timed out")

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, stored.Status)
	assert.False(t, stored.SubmissionConfirmed)
	assert.Contains(t, stored.Notes, "Submission unconfirmed")
}

func Test_Apply_ShouldStoreAnswersAndPublishEvent(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything).Return("Sure.", nil)

	bus := EventBus.New()
	lifecycle, err := NewApplicationLifecycle(store.lifecycleRepositories(),
		staticGenerators{newTestAIGenerator(ai)}, nil, nil, bus, time.Second)
	require.NoError(t, err)

	var recorded events.ApplicationRecorded
	require.NoError(t, bus.Subscribe(events.ApplicationRecordedTopic, func(e events.ApplicationRecorded) { recorded = e }))

	result, err := lifecycle.Apply(context.Background(), session,
		ApplyRequest{JobID: job.ID, ProfileID: profile.ID, Questions: []string{"Why us?"}})
	require.NoError(t, err)

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Why us?": "Sure."}, stored.CustomAnswers)
	assert.Equal(t, "Sure.", stored.CoverLetter)
	assert.Equal(t, result.Application.ID, recorded.Application.ID)
	assert.Equal(t, "Acme", recorded.Company)
}

func Test_UpdateStatus_ShouldBeIdempotentAndPublish(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	lifecycle, bus := newTestLifecycle(t, store.lifecycleRepositories(), nil, nil)
	var changes []events.ApplicationStatusChanged
	require.NoError(t, bus.Subscribe(events.ApplicationStatusChangedTopic, func(e events.ApplicationStatusChanged) {
		changes = append(changes, e)
	}))

	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)
	id := result.Application.ID

	for i := 0; i < 2; i++ {
		_, err = lifecycle.UpdateStatus(context.Background(), session, id, "interview", "")
		require.NoError(t, err)

		stored, err := store.applications.GetByID(context.Background(), session.UserID, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInterview, stored.Status)
	}

	require.Len(t, changes, 2)
	assert.Equal(t, models.StatusApplied, changes[0].From)
	assert.Equal(t, models.StatusInterview, changes[1].From)
}

func Test_UpdateStatus_WhenOtherUsersApplication_ShouldReturnNotFound(t *testing.T) {
	store := newTestStore(t)
	owner := store.addUser(t, "owner")
	stranger := store.addUser(t, "stranger")
	profile := store.addProfile(t, owner.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	lifecycle, _ := newTestLifecycle(t, store.lifecycleRepositories(), nil, nil)
	result, err := lifecycle.Apply(context.Background(), owner, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)

	_, err = lifecycle.UpdateStatus(context.Background(), stranger, result.Application.ID, "rejected", "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = lifecycle.UpdateStatus(context.Background(), owner, result.Application.ID, "hired", "")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	stored, err := store.applications.GetByID(context.Background(), owner.UserID, result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, stored.Status)
}

// slowGenerator ignores cancellation like a stuck collaborator would.
type slowGenerator struct {
	fallbackContentGenerator
	delay time.Duration
}

func (g slowGenerator) CoverLetter(ctx context.Context, job *models.Job, profile *models.Profile) string {
	time.Sleep(g.delay)
	return "late cover letter"
}

func Test_Apply_WhenGeneratorHangs_ShouldFinishWithinApplyTimeout(t *testing.T) {
	store := newTestStore(t)
	session := store.addUser(t, "jane")
	profile := store.addProfile(t, session.UserID, "Go")
	job := store.addJob(t, "Backend Engineer", "Acme", "")

	lifecycle, err := NewApplicationLifecycle(store.lifecycleRepositories(),
		staticGenerators{slowGenerator{delay: 3 * time.Second}}, nil, nil, EventBus.New(), 200*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	result, err := lifecycle.Apply(context.Background(), session, ApplyRequest{JobID: job.ID, ProfileID: profile.ID})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, result.Warnings, "content generation timed out, template cover letter used")
	assert.Contains(t, result.Application.CoverLetter, "Backend Engineer")

	stored, err := store.applications.GetByID(context.Background(), session.UserID, result.Application.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Application.CoverLetter, stored.CoverLetter)
}
