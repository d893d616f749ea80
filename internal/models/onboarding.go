package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OnboardingProfile struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	Email            string                      `gorm:"type:text;index" json:"email"`
	JobTitle         string                      `gorm:"type:text" json:"jobTitle"`
	Experience       string                      `gorm:"type:text" json:"experience"`
	TopSkills        datatypes.JSONSlice[string] `json:"topSkills"`
	TimeAvailable    string                      `gorm:"type:text" json:"timeAvailable"`
	IndustryInterest string                      `gorm:"type:text" json:"industryInterest"`
	Concern          string                      `gorm:"type:text" json:"concern"`
	Answers          datatypes.JSONMap           `json:"answers,omitempty"`
	ResumeText       string                      `gorm:"type:text" json:"-"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func (OnboardingProfile) TableName() string {
	return "onboarding_profiles"
}

func (p *OnboardingProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Skills returns the top skills with blank entries removed, order preserved.
func (p *OnboardingProfile) Skills() []string {
	skills := make([]string, 0, len(p.TopSkills))
	for _, s := range p.TopSkills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
