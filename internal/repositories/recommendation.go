package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"certcy/career-api/internal/models"
)

type RecommendationRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CareerRecommendation, error)
	FindByID(ctx context.Context, userID uuid.UUID, id string) (*models.CareerRecommendation, error)
	// SaveSet inserts the whole set in one transaction. With replace, the
	// user's previous set is deleted first. Any failure rolls everything back.
	SaveSet(ctx context.Context, userID uuid.UUID, recs []models.CareerRecommendation, replace bool) error
}

type recommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CareerRecommendation, error) {
	var recs []models.CareerRecommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("match_percent DESC").
		Order("title ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recommendations: %w", err)
	}
	return recs, nil
}

func (r *recommendationRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*models.CareerRecommendation, error) {
	var rec models.CareerRecommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recommendation: %w", translate(err))
	}
	return &rec, nil
}

func (r *recommendationRepository) SaveSet(ctx context.Context, userID uuid.UUID, recs []models.CareerRecommendation, replace bool) error {
	if len(recs) == 0 {
		return fmt.Errorf("failed to save recommendations: empty set")
	}

	for i := range recs {
		recs[i].UserID = userID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := tx.Where("user_id = ?", userID).Delete(&models.CareerRecommendation{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&recs).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save recommendations: %w", translate(err))
	}
	return nil
}
