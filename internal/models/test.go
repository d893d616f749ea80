package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CareerPathTest is the generated quiz plus course suggestions for one
// recommendation. At most one exists per (UserID, CareerPathID).
type CareerPathTest struct {
	ID                   uuid.UUID                                 `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID                                 `gorm:"type:uuid;not null;uniqueIndex:idx_tests_user_path" json:"userId"`
	CareerPathID         string                                    `gorm:"type:text;not null;uniqueIndex:idx_tests_user_path" json:"careerPathId"`
	Questions            []TestQuestion                            `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"questions"`
	Recommendations      datatypes.JSONSlice[CourseRecommendation] `json:"recommendations"`
	SelectedRoadmapIndex *int                                      `json:"selectedRoadmapIndex"`
	CompletedAt          *time.Time                                `json:"completedAt"`
	Score                *int                                      `json:"score"`
	CreatedAt            time.Time                                 `json:"createdAt"`
	UpdatedAt            time.Time                                 `json:"updatedAt"`
}

func (CareerPathTest) TableName() string {
	return "career_path_tests"
}

func (t *CareerPathTest) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SelectedCourse returns the course at SelectedRoadmapIndex (0 when unset),
// or nil when the index is out of range.
func (t *CareerPathTest) SelectedCourse() *CourseRecommendation {
	idx := 0
	if t.SelectedRoadmapIndex != nil {
		idx = *t.SelectedRoadmapIndex
	}
	if idx < 0 || idx >= len(t.Recommendations) {
		return nil
	}
	course := t.Recommendations[idx]
	return &course
}

type TestQuestion struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	TestID        uuid.UUID                   `gorm:"type:uuid;not null;index" json:"testId"`
	Question      string                      `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer int                         `gorm:"not null" json:"correctAnswer"`
	Order         int                         `gorm:"column:question_order;not null" json:"order"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}

func (q *TestQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// CourseRecommendation is stored embedded in the test row.
type CourseRecommendation struct {
	Title        string   `json:"title"`
	Provider     string   `json:"provider"`
	Description  string   `json:"description"`
	Duration     string   `json:"duration"`
	Level        string   `json:"level"`
	URL          string   `json:"url"`
	RoadmapSteps []string `json:"roadmapSteps"`
}

type TestResponse struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TestID     uuid.UUID `gorm:"type:uuid;not null;index" json:"testId"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"questionId"`
	UserAnswer int       `gorm:"not null" json:"userAnswer"`
	IsCorrect  bool      `gorm:"not null" json:"isCorrect"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (TestResponse) TableName() string {
	return "test_responses"
}

func (r *TestResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
