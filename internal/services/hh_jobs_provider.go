package services

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/clients/hh"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type hhClient interface {
	GetVacancies(ctx context.Context, parameters hh.SearchParameters) ([]hh.VacancyPreview, error)
	GetAreas(ctx context.Context) ([]hh.Area, error)
}

const (
	hhJobIDPrefix = "hh-"
	hhMaxPageSize = 100
	areasCacheKey = "areas"
)

// HHJobsProvider searches hh.ru vacancies.
type HHJobsProvider struct {
	client hhClient
	cache  *gocache.Cache
}

func NewHHJobsProvider(client hhClient) *HHJobsProvider {
	return &HHJobsProvider{client: client, cache: gocache.New(24*time.Hour, time.Hour)}
}

func (p *HHJobsProvider) Name() string {
	return string(models.SourceHH)
}

func (p *HHJobsProvider) Search(ctx context.Context, keywords, location string, limit int) ([]models.Job, error) {

	params := hh.SearchParameters{
		Text:                   keywords,
		OrderByPublicationTime: true,
		PerPage:                min(limit, hhMaxPageSize),
	}

	if areaID, ok := p.resolveArea(ctx, location); ok {
		params.AreaID = areaID
	} else if location = strings.TrimSpace(location); location != "" {
		params.Text = strings.TrimSpace(keywords + " " + location)
	}

	var jobs []models.Job
	for page := 0; len(jobs) < limit; page++ {
		params.Page = page

		previews, err := p.client.GetVacancies(ctx, params)
		if err != nil {
			if errors.Is(err, hh.ErrTooDeepPagination) {
				log.Warningf("too deep pagination for %q, page: %d", keywords, page)
				break
			}
			return nil, err
		}
		if len(previews) == 0 {
			break
		}

		jobs = append(jobs, lo.Map(previews, func(preview hh.VacancyPreview, _ int) models.Job {
			return jobFromPreview(preview)
		})...)

		if len(previews) < params.PerPage {
			break
		}
	}

	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// resolveArea accepts an area id or an area name known to hh.
func (p *HHJobsProvider) resolveArea(ctx context.Context, location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}
	if _, err := strconv.Atoi(location); err == nil {
		return location, true
	}

	areas, err := p.areas(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHhApi).Errorf("failed to get areas: %v", err)
		return "", false
	}

	area, found := lo.Find(areas, func(area hh.Area) bool {
		return strings.EqualFold(area.Name, location)
	})
	return area.ID, found
}

func (p *HHJobsProvider) areas(ctx context.Context) ([]hh.Area, error) {
	if cached, found := p.cache.Get(areasCacheKey); found {
		return cached.([]hh.Area), nil
	}

	areas, err := p.client.GetAreas(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Set(areasCacheKey, areas, gocache.DefaultExpiration)
	return areas, nil
}

var highlightTags = regexp.MustCompile(`</?highlighttext>`)

func jobFromPreview(preview hh.VacancyPreview) models.Job {
	job := models.Job{
		ID:          hhJobIDPrefix + preview.ID,
		Title:       preview.Name,
		URL:         preview.Url,
		SalaryRange: preview.Salary.String(),
		PostedDate:  preview.PublishedAt.UTC(),
		MatchScore:  models.NeutralMatchScore,
		Source:      models.SourceHH,
	}
	if preview.Employer != nil {
		job.Company = preview.Employer.Name
	}
	if preview.Area != nil {
		job.Location = preview.Area.Name
	}
	if preview.Snippet != nil {
		parts := lo.Compact([]string{preview.Snippet.Responsibility, preview.Snippet.Requirement})
		job.Description = highlightTags.ReplaceAllString(strings.Join(parts, "\n"), "")
	}
	return job
}
