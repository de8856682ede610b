package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

// Add stores a job. A job that is already stored under the same id is kept as is.
func (repo *Jobs) Add(ctx context.Context, job *models.Job) error {
	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(job).Error
}

func (repo *Jobs) GetByID(ctx context.Context, ID string) (*models.Job, error) {
	var job models.Job
	if err := repo.db.WithContext(ctx).First(&job, "id = ?", ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (repo *Jobs) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	query := repo.db.WithContext(ctx).Model(&models.Job{})

	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Company != "" {
		query = query.Where("LOWER(company) LIKE LOWER(?)", "%"+filter.Company+"%")
	}
	if filter.MinScore > 0 {
		query = query.Where("match_score >= ?", filter.MinScore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []models.Job
	if err := query.Order("posted_date DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateMatchScore is the only mutation a stored job allows.
func (repo *Jobs) UpdateMatchScore(ctx context.Context, ID string, score float64) error {
	return repo.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", ID).
		Update("match_score", score).Error
}

// GetNotAppliedBy returns jobs the user has no application for, newest first.
func (repo *Jobs) GetNotAppliedBy(ctx context.Context, userID string, limit int) ([]models.Job, error) {
	applied := repo.db.Model(&models.Application{}).Select("job_id").Where("user_id = ?", userID)

	var jobs []models.Job
	if err := repo.db.WithContext(ctx).
		Where("id NOT IN (?)", applied).
		Order("posted_date DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// RemoveStale deletes jobs posted before expirationTime that no user applied to.
func (repo *Jobs) RemoveStale(ctx context.Context, expirationTime time.Time) (int64, error) {
	applied := repo.db.Model(&models.Application{}).Select("job_id")

	res := repo.db.WithContext(ctx).
		Where("posted_date < ? AND id NOT IN (?)", expirationTime.UTC(), applied).
		Delete(&models.Job{})
	return res.RowsAffected, res.Error
}
