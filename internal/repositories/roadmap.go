package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"certcy/career-api/internal/models"
)

type RoadmapRepository interface {
	Create(ctx context.Context, roadmap *models.LearningRoadmap) error
	FindByID(ctx context.Context, userID, roadmapID uuid.UUID) (*models.LearningRoadmap, error)
	FindLatestByTest(ctx context.Context, userID, testID uuid.UUID) (*models.LearningRoadmap, error)
	UpdateProgress(ctx context.Context, roadmap *models.LearningRoadmap) error
}

type roadmapRepository struct {
	db *gorm.DB
}

func NewRoadmapRepository(db *gorm.DB) RoadmapRepository {
	return &roadmapRepository{db: db}
}

func (r *roadmapRepository) Create(ctx context.Context, roadmap *models.LearningRoadmap) error {
	if err := r.db.WithContext(ctx).Create(roadmap).Error; err != nil {
		return fmt.Errorf("failed to create roadmap: %w", err)
	}
	return nil
}

func (r *roadmapRepository) FindByID(ctx context.Context, userID, roadmapID uuid.UUID) (*models.LearningRoadmap, error) {
	var roadmap models.LearningRoadmap
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", roadmapID, userID).
		First(&roadmap).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find roadmap: %w", translate(err))
	}
	return &roadmap, nil
}

func (r *roadmapRepository) FindLatestByTest(ctx context.Context, userID, testID uuid.UUID) (*models.LearningRoadmap, error) {
	var roadmap models.LearningRoadmap
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Order("created_at DESC").
		First(&roadmap).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find roadmap: %w", translate(err))
	}
	return &roadmap, nil
}

// UpdateProgress writes the mutable progress columns and refreshes updated_at.
func (r *roadmapRepository) UpdateProgress(ctx context.Context, roadmap *models.LearningRoadmap) error {
	roadmap.UpdatedAt = time.Now()

	var pivot interface{}
	if roadmap.HasPivot() {
		pivot = roadmap.SelectedPivot
	}

	result := r.db.WithContext(ctx).Model(&models.LearningRoadmap{}).
		Where("id = ? AND user_id = ?", roadmap.ID, roadmap.UserID).
		Updates(map[string]interface{}{
			"completed_steps": roadmap.CompletedSteps,
			"selected_pivot":  pivot,
			"updated_at":      roadmap.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update roadmap: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update roadmap: %w", ErrNotFound)
	}

	return nil
}
