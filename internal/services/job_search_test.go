package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/clients/hh"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type mockHHClient struct {
	mock.Mock
}

func (m *mockHHClient) GetVacancies(ctx context.Context, parameters hh.SearchParameters) ([]hh.VacancyPreview, error) {
	args := m.Called(ctx, parameters)
	return args.Get(0).([]hh.VacancyPreview), args.Error(1)
}

func (m *mockHHClient) GetAreas(ctx context.Context) ([]hh.Area, error) {
	args := m.Called(ctx)
	return args.Get(0).([]hh.Area), args.Error(1)
}

type failingProvider struct{}

func (failingProvider) Name() string { return "broken" }

func (failingProvider) Search(context.Context, string, string, int) ([]models.Job, error) {
	return nil, errors.New("connection refused")
}

func preview(id, name, employer, url string) hh.VacancyPreview {
	p := hh.VacancyPreview{ID: id, Name: name, Url: url, PublishedAt: hh.CustomTime{Time: time.Now()}}
	if employer != "" {
		p.Employer = &hh.Employer{Name: employer}
	}
	return p
}

func Test_HHJobsProvider_ShouldResolveAreaByName(t *testing.T) {
	client := &mockHHClient{}
	client.On("GetAreas", mock.Anything).Return([]hh.Area{{ID: "1", Name: "Moscow"}}, nil).Once()
	client.On("GetVacancies", mock.Anything, mock.MatchedBy(func(p hh.SearchParameters) bool {
		return p.AreaID == "1" && p.Text == "golang" && p.PerPage == 5
	})).Return([]hh.VacancyPreview{preview("10", "Go developer", "Acme", "https://hh.ru/vacancy/10")}, nil)

	provider := NewHHJobsProvider(client)

	jobs, err := provider.Search(context.Background(), "golang", "moscow", 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "hh-10", jobs[0].ID)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, models.SourceHH, jobs[0].Source)

	_, err = provider.Search(context.Background(), "golang", "Moscow", 5)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func Test_HHJobsProvider_WhenUnknownLocation_ShouldSearchByText(t *testing.T) {
	client := &mockHHClient{}
	client.On("GetAreas", mock.Anything).Return([]hh.Area{}, nil)
	client.On("GetVacancies", mock.Anything, mock.MatchedBy(func(p hh.SearchParameters) bool {
		return p.AreaID == "" && p.Text == "golang remote"
	})).Return([]hh.VacancyPreview{}, nil)

	jobs, err := NewHHJobsProvider(client).Search(context.Background(), "golang", "remote", 5)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	client.AssertExpectations(t)
}

func Test_JobSearch_ShouldStoreOnlyCompleteJobs(t *testing.T) {
	store := newTestStore(t)

	client := &mockHHClient{}
	client.On("GetVacancies", mock.Anything, mock.Anything).Return([]hh.VacancyPreview{
		preview("1", "Go developer", "Acme", "https://hh.ru/vacancy/1"),
		preview("2", "No employer", "", "https://hh.ru/vacancy/2"),
		preview("3", "No url", "Acme", ""),
	}, nil)

	search := NewJobSearch(store.jobs, NewHHJobsProvider(client), failingProvider{})

	jobs, err := search.Search(context.Background(), "golang", "2", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	stored, err := store.jobs.GetByID(context.Background(), "hh-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Go developer", stored.Title)

	missing, err := store.jobs.GetByID(context.Background(), "hh-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func Test_JobSearch_WhenAllProvidersFail_ShouldFail(t *testing.T) {
	search := NewJobSearch(newTestStore(t).jobs, failingProvider{})

	_, err := search.Search(context.Background(), "golang", "", 10)
	assert.Error(t, err)

	_, err = NewJobSearch(nil).Search(context.Background(), "golang", "", 10)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func Test_JobSearch_AddManual(t *testing.T) {
	store := newTestStore(t)
	search := NewJobSearch(store.jobs)

	job, err := search.AddManual(context.Background(), models.Job{Title: " Backend Engineer ", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, job.Source)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.NotEmpty(t, job.ID)

	_, err = search.AddManual(context.Background(), models.Job{Title: "No company"})
	assert.ErrorIs(t, err, models.ErrValidation)
}
