package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"gorm.io/gorm"
	"time"
)

type Applications struct {
	db *gorm.DB
}

func NewApplicationsRepository(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (repo *Applications) Create(ctx context.Context, application *models.Application) error {
	return repo.db.WithContext(ctx).Create(application).Error
}

func (repo *Applications) GetByID(ctx context.Context, userID, ID string) (*models.Application, error) {
	var application models.Application
	err := repo.db.WithContext(ctx).First(&application, "id = ? AND user_id = ?", ID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (repo *Applications) List(ctx context.Context, userID string,
	filter models.ApplicationFilter) ([]models.ApplicationDetails, error) {

	query := repo.db.WithContext(ctx).Table("applications").
		Select("applications.*, jobs.title AS job_title, jobs.company AS company, profiles.name AS profile_name").
		Joins("LEFT JOIN jobs ON jobs.id = applications.job_id").
		Joins("LEFT JOIN profiles ON profiles.id = applications.profile_id").
		Where("applications.user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("applications.status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		query = query.Where("applications.applied_date >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("applications.applied_date < ?", filter.To.UTC())
	}
	if filter.Company != "" {
		query = query.Where("LOWER(jobs.company) LIKE LOWER(?)", "%"+filter.Company+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var applications []models.ApplicationDetails
	if err := query.Order("applications.applied_date DESC").Scan(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateStatus overwrites status and notes of the user's application and appends the
// previous values to the status history in the same transaction.
func (repo *Applications) UpdateStatus(ctx context.Context, userID, ID string, status models.Status,
	notes string) (*models.StatusChange, error) {

	var change *models.StatusChange

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.First(&application, "id = ? AND user_id = ?", ID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}

		change = &models.StatusChange{
			ApplicationID: application.ID,
			UserID:        userID,
			FromStatus:    application.Status,
			ToStatus:      status,
			PreviousNotes: application.Notes,
			Notes:         notes,
			ChangedAt:     time.Now().UTC(),
		}
		if err := tx.Create(change).Error; err != nil {
			return err
		}

		return tx.Model(&models.Application{}).
			Where("id = ? AND user_id = ?", ID, userID).
			Updates(map[string]any{"status": status, "notes": notes}).Error
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (repo *Applications) SetResponseReceived(ctx context.Context, userID, ID string, received bool) error {
	res := repo.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND user_id = ?", ID, userID).
		Update("response_received", received)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// History returns the status changes of the user's application, oldest first.
func (repo *Applications) History(ctx context.Context, userID, ID string) ([]models.StatusChange, error) {
	var owned int64
	if err := repo.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND user_id = ?", ID, userID).Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned == 0 {
		return nil, models.ErrNotFound
	}

	changes := []models.StatusChange{}
	if err := repo.db.WithContext(ctx).Order("id").
		Find(&changes, "application_id = ? AND user_id = ?", ID, userID).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

func (repo *Applications) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&models.Application{}).
		Where("user_id = ? AND applied_date >= ?", userID, since.UTC()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *Applications) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var stats models.Stats
	db := repo.db.WithContext(ctx)

	if err := db.Model(&models.Application{}).Where("user_id = ?", userID).
		Count(&stats.TotalApplications).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&models.Application{}).Where("user_id = ? AND status = ?", userID, models.StatusPending).
		Count(&stats.PendingApplications).Error; err != nil {
		return stats, err
	}

	var responses int64
	if err := db.Model(&models.Application{}).Where("user_id = ? AND response_received = ?", userID, true).
		Count(&responses).Error; err != nil {
		return stats, err
	}
	if stats.TotalApplications > 0 {
		stats.ResponseRate = float64(responses) / float64(stats.TotalApplications) * 100
	}

	if err := db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Count(&stats.ActiveProfiles).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

func (repo *Applications) Analytics(ctx context.Context, userID string) (models.Analytics, error) {
	analytics := models.Analytics{
		StatusDistribution: make(map[models.Status]int64, len(models.Statuses)),
		ApplicationsPerDay: []models.DailyCount{},
		TopCompanies:       []models.CompanyCount{},
	}
	for _, status := range models.Statuses {
		analytics.StatusDistribution[status] = 0
	}
	db := repo.db.WithContext(ctx)

	type statusCount struct {
		Status models.Status
		Count  int64
	}
	var byStatus []statusCount
	if err := db.Model(&models.Application{}).Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).Group("status").Scan(&byStatus).Error; err != nil {
		return analytics, err
	}
	for _, row := range byStatus {
		analytics.StatusDistribution[row.Status] = row.Count
		analytics.TotalApplications += row.Count
	}

	if err := db.Model(&models.Application{}).Where("user_id = ? AND response_received = ?", userID, true).
		Count(&analytics.ResponsesReceived).Error; err != nil {
		return analytics, err
	}
	if analytics.TotalApplications > 0 {
		analytics.ResponseRate = float64(analytics.ResponsesReceived) / float64(analytics.TotalApplications) * 100
	}

	// grouped here, date functions differ between sqlite and postgres
	var appliedDates []time.Time
	if err := db.Model(&models.Application{}).Where("user_id = ?", userID).
		Order("applied_date").Pluck("applied_date", &appliedDates).Error; err != nil {
		return analytics, err
	}
	for _, applied := range appliedDates {
		day := applied.UTC().Format(time.DateOnly)
		last := len(analytics.ApplicationsPerDay) - 1
		if last >= 0 && analytics.ApplicationsPerDay[last].Date == day {
			analytics.ApplicationsPerDay[last].Count++
			continue
		}
		analytics.ApplicationsPerDay = append(analytics.ApplicationsPerDay, models.DailyCount{Date: day, Count: 1})
	}

	if err := db.Table("applications").Select("jobs.company AS company, COUNT(*) AS count").
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("applications.user_id = ?", userID).
		Group("jobs.company").Order("COUNT(*) DESC, jobs.company").
		Limit(models.TopCompaniesLimit).Scan(&analytics.TopCompanies).Error; err != nil {
		return analytics, err
	}

	return analytics, nil
}
