package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/models"
)

// DB returns a migrated in-memory SQLite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Env bundles the collaborators most package tests need.
type Env struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewEnv(tb testing.TB) *Env {
	tb.Helper()
	return &Env{DB: DB(tb), Log: Logger(tb)}
}

func Logger(tb testing.TB) *zap.Logger {
	tb.Helper()
	return zaptest.NewLogger(tb)
}

func NewUser(email string) *models.UserIdentity {
	return &models.UserIdentity{ID: uuid.New(), Email: email}
}

// SeedProfile stores a complete onboarding profile for user.
func SeedProfile(tb testing.TB, db *gorm.DB, user *models.UserIdentity) *models.OnboardingProfile {
	tb.Helper()
	p := &models.OnboardingProfile{
		UserID:           user.ID,
		Email:            user.Email,
		JobTitle:         "Data Analyst",
		Experience:       "3-5 years",
		TopSkills:        datatypes.JSONSlice[string]{"SQL", "", "Python", "Tableau"},
		TimeAvailable:    "5-10 hours/week",
		IndustryInterest: "Healthcare",
		Concern:          "Automation of reporting work",
		Answers:          datatypes.JSONMap{"learningStyle": "hands-on"},
	}
	if err := db.WithContext(context.Background()).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedRecommendation stores one recommendation for user.
func SeedRecommendation(tb testing.TB, db *gorm.DB, user *models.UserIdentity, id string) *models.CareerRecommendation {
	tb.Helper()
	rec := &models.CareerRecommendation{
		UserID:      user.ID,
		ID:          id,
		Title:       "Analytics Engineer",
		Match:       88,
		Description: "Build reliable data models.",
		Skills:      datatypes.JSONSlice[string]{"dbt", "SQL"},
		Growth:      models.GrowthHigh,
		Salary:      "$110k - $150k",
	}
	if err := db.Create(rec).Error; err != nil {
		tb.Fatalf("seed recommendation: %v", err)
	}
	return rec
}

// SeedTest stores a test with n questions whose correct answer is i%4.
func SeedTest(tb testing.TB, db *gorm.DB, user *models.UserIdentity, careerPathID string, n int) *models.CareerPathTest {
	tb.Helper()
	test := &models.CareerPathTest{
		UserID:       user.ID,
		CareerPathID: careerPathID,
		Recommendations: datatypes.JSONSlice[models.CourseRecommendation]{
			{Title: "dbt Fundamentals", Provider: "dbt Labs", RoadmapSteps: []string{"Models", "Tests"}},
			{Title: "Data Modeling", Provider: "Coursera", RoadmapSteps: []string{"Star schema"}},
		},
	}
	for i := 0; i < n; i++ {
		test.Questions = append(test.Questions, models.TestQuestion{
			Question:      fmt.Sprintf("Question %d", i+1),
			Options:       datatypes.JSONSlice[string]{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
			Order:         i,
		})
	}
	if err := db.Create(test).Error; err != nil {
		tb.Fatalf("seed test: %v", err)
	}
	return test
}

// SeedRoadmap stores a roadmap with weeks x perWeek activities.
func SeedRoadmap(tb testing.TB, db *gorm.DB, user *models.UserIdentity, testID *uuid.UUID, weeks, perWeek int) *models.LearningRoadmap {
	tb.Helper()
	r := &models.LearningRoadmap{
		UserID:      user.ID,
		TestID:      testID,
		Title:       "Analytics Engineer in 8 weeks",
		Description: "A plan",
		TotalWeeks:  weeks,
	}
	for w := 1; w <= weeks; w++ {
		week := models.Week{WeekNumber: w, Theme: fmt.Sprintf("Week %d", w)}
		for a := 1; a <= perWeek; a++ {
			week.Activities = append(week.Activities, models.Activity{Type: "course", Title: models.ActivityID(w, a)})
		}
		r.Weeks = append(r.Weeks, week)
	}
	if err := db.Create(r).Error; err != nil {
		tb.Fatalf("seed roadmap: %v", err)
	}
	return r
}

// CountResponses returns how many answers are stored for a test.
func CountResponses(tb testing.TB, db *gorm.DB, testID uuid.UUID) int64 {
	tb.Helper()
	var count int64
	if err := db.Model(&models.TestResponse{}).Where("test_id = ?", testID).Count(&count).Error; err != nil {
		tb.Fatalf("count responses: %v", err)
	}
	return count
}
