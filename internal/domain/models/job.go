package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Source string

const (
	SourceIndeed   Source = "indeed"
	SourceLinkedIn Source = "linkedin"
	SourceHH       Source = "hh"
	SourceManual   Source = "manual"
)

func ToSource(s string) (Source, error) {
	switch s {
	case string(SourceIndeed):
		return SourceIndeed, nil
	case string(SourceLinkedIn):
		return SourceLinkedIn, nil
	case string(SourceHH):
		return SourceHH, nil
	case string(SourceManual):
		return SourceManual, nil
	default:
		return "", fmt.Errorf("invalid job source: %v", s)
	}
}

// NeutralMatchScore is used whenever a real score can't be computed.
const NeutralMatchScore = 0.5

type Job struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title" validate:"required"`
	Company     string    `json:"company" validate:"required"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	URL         string    `json:"url" validate:"omitempty,url"`
	SalaryRange string    `json:"salary_range"`
	PostedDate  time.Time `json:"posted_date"`
	MatchScore  float64   `json:"match_score" validate:"gte=0,lte=1"`
	Source      Source    `gorm:"index" json:"source" validate:"required,oneof=indeed linkedin hh manual"`
	CreatedAt   time.Time `json:"created_at"`
}

func (j *Job) Validate() error {
	return Validate(j)
}

func (j *Job) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

type JobFilter struct {
	Source   Source
	Company  string
	MinScore float64
	Limit    int
}
