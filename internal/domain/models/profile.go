package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Profile is a candidate persona used when applying to jobs.
type Profile struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"index;not null" json:"-"`
	Name            string    `gorm:"not null" json:"name" validate:"required"`
	Skills          []string  `gorm:"serializer:json" json:"skills" validate:"required,min=1,dive,required"`
	Experience      string    `json:"experience"`
	Summary         string    `json:"summary"`
	TargetPositions []string  `gorm:"serializer:json" json:"target_positions"`
	ResumePath      string    `json:"resume_path,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Normalize trims free-text input and drops blank skills and positions.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Skills = cleanList(p.Skills)
	p.TargetPositions = cleanList(p.TargetPositions)
}

func (p *Profile) Validate() error {
	return Validate(p)
}

// TopSkills returns at most n skills keeping their order.
func (p *Profile) TopSkills(n int) []string {
	if len(p.Skills) <= n {
		return p.Skills
	}
	return p.Skills[:n]
}

// BeforeCreate normalizes the profile and rejects it without a name or skills.
func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func cleanList(items []string) []string {
	trimmed := lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Filter(trimmed, func(item string, _ int) bool {
		return item != ""
	})
}
