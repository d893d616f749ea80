package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LearningRoadmap struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	TestID         *uuid.UUID                  `gorm:"type:uuid;index" json:"testId"`
	Title          string                      `gorm:"type:text;not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	TotalWeeks     int                         `gorm:"not null" json:"totalWeeks"`
	Weeks          datatypes.JSONSlice[Week]   `json:"weeks"`
	CompletedSteps datatypes.JSONSlice[string] `json:"completedSteps"`
	SelectedPivot  datatypes.JSON              `json:"selectedPivot"`
	Progress       int                         `gorm:"-" json:"progress"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

func (LearningRoadmap) TableName() string {
	return "learning_roadmaps"
}

func (r *LearningRoadmap) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CompletedSteps == nil {
		r.CompletedSteps = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (r *LearningRoadmap) AfterFind(tx *gorm.DB) error {
	if r.CompletedSteps == nil {
		r.CompletedSteps = datatypes.JSONSlice[string]{}
	}
	r.Progress = r.ProgressPercent()
	return nil
}

type Week struct {
	WeekNumber int        `json:"weekNumber"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
	Goals      []string   `json:"goals"`
	Outcomes   []string   `json:"outcomes"`
}

type Activity struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedTime string `json:"estimatedTime"`
	Resource      string `json:"resource"`
}

// ActivityID is the progress key for the m-th activity (1-based) of week n.
func ActivityID(week, activity int) string {
	return fmt.Sprintf("week%d-activity%d", week, activity)
}

// TotalActivities counts activities across all weeks.
func (r *LearningRoadmap) TotalActivities() int {
	total := 0
	for _, w := range r.Weeks {
		total += len(w.Activities)
	}
	return total
}

// ActivityIDs returns the progress keys of every activity in the roadmap.
// Weeks without a number are keyed by position.
func (r *LearningRoadmap) ActivityIDs() map[string]struct{} {
	ids := make(map[string]struct{}, r.TotalActivities())
	for i, w := range r.Weeks {
		n := w.WeekNumber
		if n <= 0 {
			n = i + 1
		}
		for a := range w.Activities {
			ids[ActivityID(n, a+1)] = struct{}{}
		}
	}
	return ids
}

// KnownSteps keeps the steps that name an activity of the roadmap, in order
// and without duplicates.
func (r *LearningRoadmap) KnownSteps(steps []string) []string {
	ids := r.ActivityIDs()
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if _, ok := ids[s]; !ok {
			continue
		}
		delete(ids, s)
		out = append(out, s)
	}
	return out
}

// ProgressPercent is round(100 * completed / total), 0 when there are no
// activities. Steps that match no activity are not counted.
func (r *LearningRoadmap) ProgressPercent() int {
	return ProgressPercent(len(r.KnownSteps(r.CompletedSteps)), r.TotalActivities())
}

func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// HasPivot reports whether a pivot selection is stored.
func (r *LearningRoadmap) HasPivot() bool {
	return len(r.SelectedPivot) > 0 && string(r.SelectedPivot) != "null"
}
