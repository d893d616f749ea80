package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CareerRecommendation is keyed by (UserID, ID). ID is the slug chosen by the
// generator, so it is only unique within one user's set.
type CareerRecommendation struct {
	UserID      uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"-"`
	ID          string                      `gorm:"type:text;primaryKey" json:"id"`
	Title       string                      `gorm:"type:text;not null" json:"title"`
	Match       int                         `gorm:"column:match_percent;not null" json:"match"`
	Description string                      `gorm:"type:text" json:"description"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Growth      string                      `gorm:"type:text" json:"growth"`
	Salary      string                      `gorm:"type:text" json:"salary"`
	CreatedAt   time.Time                   `json:"createdAt"`
}

func (CareerRecommendation) TableName() string {
	return "career_recommendations"
}

const (
	GrowthVeryHigh = "Very High"
	GrowthHigh     = "High"
	GrowthModerate = "Moderate"
)
