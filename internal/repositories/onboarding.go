package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"certcy/career-api/internal/models"
)

type OnboardingRepository interface {
	Create(ctx context.Context, profile *models.OnboardingProfile) error
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.OnboardingProfile, error)
	FindLatestByEmail(ctx context.Context, email string) (*models.OnboardingProfile, error)
	UpdateResumeText(ctx context.Context, id uuid.UUID, text string) error
}

type onboardingRepository struct {
	db *gorm.DB
}

func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

func (r *onboardingRepository) Create(ctx context.Context, profile *models.OnboardingProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create onboarding profile: %w", err)
	}
	return nil
}

func (r *onboardingRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.OnboardingProfile, error) {
	var profile models.OnboardingProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find onboarding profile: %w", translate(err))
	}
	return &profile, nil
}

// FindLatestByEmail is the secondary lookup for profiles stored before the
// account's user id was known.
func (r *onboardingRepository) FindLatestByEmail(ctx context.Context, email string) (*models.OnboardingProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("failed to find onboarding profile: %w", ErrNotFound)
	}

	var profile models.OnboardingProfile
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		Order("created_at DESC").
		First(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find onboarding profile: %w", translate(err))
	}
	return &profile, nil
}

func (r *onboardingRepository) UpdateResumeText(ctx context.Context, id uuid.UUID, text string) error {
	result := r.db.WithContext(ctx).Model(&models.OnboardingProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resume_text": text,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update resume text: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update resume text: %w", ErrNotFound)
	}

	return nil
}
