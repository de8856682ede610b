package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

// Status is advisory tracking: any enumerated status may follow any other.
const (
	StatusPending   Status = "pending"
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusRejected  Status = "rejected"
	StatusAccepted  Status = "accepted"
)

var Statuses = []Status{StatusPending, StatusApplied, StatusInterview, StatusRejected, StatusAccepted}

func ToStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

type Application struct {
	ID                  string            `gorm:"primaryKey" json:"id"`
	JobID               string            `gorm:"index;not null" json:"job_id"`
	ProfileID           string            `gorm:"index;not null" json:"profile_id"`
	UserID              string            `gorm:"index;not null" json:"-"`
	Status              Status            `gorm:"index;default:pending" json:"status"`
	AppliedDate         time.Time         `gorm:"index" json:"applied_date"`
	CoverLetter         string            `gorm:"not null;default:''" json:"cover_letter"`
	CustomAnswers       map[string]string `gorm:"serializer:json" json:"custom_answers"`
	ResponseReceived    bool              `json:"response_received"`
	SubmissionConfirmed bool              `json:"submission_confirmed"`
	Notes               string            `json:"notes"`
	CreatedAt           time.Time         `json:"created_at"`
}

// NewApplication builds the record created by an apply action. It starts at
// StatusApplied: the pending state is never persisted by the lifecycle.
func NewApplication(userID string, job *Job, profile *Profile, coverLetter string,
	answers map[string]string, appliedAt time.Time) *Application {

	if answers == nil {
		answers = map[string]string{}
	}
	return &Application{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		ProfileID:     profile.ID,
		UserID:        userID,
		Status:        StatusApplied,
		AppliedDate:   appliedAt.UTC(),
		CoverLetter:   coverLetter,
		CustomAnswers: answers,
	}
}

func (a *Application) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ApplicationDetails is an application joined with its job and profile for listings.
type ApplicationDetails struct {
	Application `gorm:"embedded"`
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	ProfileName string `json:"profile_name"`
}

// StatusChange is an append-only history row written with every status update,
// so overwriting notes never loses what was there before.
type StatusChange struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ApplicationID string    `gorm:"index;not null" json:"application_id"`
	UserID        string    `gorm:"index;not null" json:"-"`
	FromStatus    Status    `json:"from_status"`
	ToStatus      Status    `json:"to_status"`
	PreviousNotes string    `json:"previous_notes"`
	Notes         string    `json:"notes"`
	ChangedAt     time.Time `json:"changed_at"`
}

type ApplicationFilter struct {
	Status  Status
	From    time.Time
	To      time.Time
	Company string
	Limit   int
}

type Stats struct {
	TotalApplications   int64   `json:"total_applications"`
	PendingApplications int64   `json:"pending_applications"`
	ResponseRate        float64 `json:"response_rate"`
	ActiveProfiles      int64   `json:"active_profiles"`
}

const TopCompaniesLimit = 10

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int64  `json:"count"`
}

// Analytics is the breakdown behind the stats: every status is present even at zero,
// days are UTC dates in ascending order.
type Analytics struct {
	TotalApplications  int64            `json:"total_applications"`
	ResponsesReceived  int64            `json:"responses_received"`
	ResponseRate       float64          `json:"response_rate"`
	StatusDistribution map[Status]int64 `json:"status_distribution"`
	ApplicationsPerDay []DailyCount     `json:"applications_per_day"`
	TopCompanies       []CompanyCount   `json:"top_companies"`
}
