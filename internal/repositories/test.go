package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"certcy/career-api/internal/models"
)

type TestRepository interface {
	// Create stores the test and its questions in one transaction.
	Create(ctx context.Context, test *models.CareerPathTest) error
	FindByID(ctx context.Context, userID, testID uuid.UUID) (*models.CareerPathTest, error)
	FindByCareerPath(ctx context.Context, userID uuid.UUID, careerPathID string) (*models.CareerPathTest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CareerPathTest, error)
	RecordSubmission(ctx context.Context, test *models.CareerPathTest, responses []models.TestResponse, score int) error
	UpdateSelectedIndex(ctx context.Context, userID, testID uuid.UUID, index int) error
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("question_order ASC")
}

func (r *testRepository) Create(ctx context.Context, test *models.CareerPathTest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(test).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create test: %w", translate(err))
	}
	return nil
}

func (r *testRepository) FindByID(ctx context.Context, userID, testID uuid.UUID) (*models.CareerPathTest, error) {
	var test models.CareerPathTest
	err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("id = ? AND user_id = ?", testID, userID).
		First(&test).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find test: %w", translate(err))
	}
	return &test, nil
}

func (r *testRepository) FindByCareerPath(ctx context.Context, userID uuid.UUID, careerPathID string) (*models.CareerPathTest, error) {
	var test models.CareerPathTest
	err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("user_id = ? AND career_path_id = ?", userID, careerPathID).
		First(&test).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find test: %w", translate(err))
	}
	return &test, nil
}

func (r *testRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CareerPathTest, error) {
	var tests []models.CareerPathTest
	err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

// RecordSubmission appends the responses and stamps score and completion time
// on test, all or nothing.
func (r *testRepository) RecordSubmission(ctx context.Context, test *models.CareerPathTest, responses []models.TestResponse, score int) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(responses) > 0 {
			if err := tx.Create(&responses).Error; err != nil {
				return err
			}
		}
		result := tx.Model(&models.CareerPathTest{}).
			Where("id = ? AND user_id = ?", test.ID, test.UserID).
			Updates(map[string]interface{}{
				"score":        score,
				"completed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", translate(err))
	}

	test.Score = &score
	test.CompletedAt = &now
	test.UpdatedAt = now
	return nil
}

func (r *testRepository) UpdateSelectedIndex(ctx context.Context, userID, testID uuid.UUID, index int) error {
	result := r.db.WithContext(ctx).Model(&models.CareerPathTest{}).
		Where("id = ? AND user_id = ?", testID, userID).
		Updates(map[string]interface{}{
			"selected_roadmap_index": index,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update selected course: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update selected course: %w", ErrNotFound)
	}

	return nil
}
