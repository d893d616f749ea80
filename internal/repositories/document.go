package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"certcy/career-api/internal/models"
)

type ResumeDocumentRepository interface {
	Create(ctx context.Context, document *models.ResumeDocument) error
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.ResumeDocument, error)
}

type resumeDocumentRepository struct {
	db *gorm.DB
}

func NewResumeDocumentRepository(db *gorm.DB) ResumeDocumentRepository {
	return &resumeDocumentRepository{db: db}
}

// Create implements ResumeDocumentRepository.
func (d *resumeDocumentRepository) Create(ctx context.Context, document *models.ResumeDocument) error {
	if err := d.db.WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create resume document: %w", err)
	}

	return nil
}

// FindLatestByUser implements ResumeDocumentRepository.
func (d *resumeDocumentRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.ResumeDocument, error) {
	var doc models.ResumeDocument
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&doc).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find resume document: %w", translate(err))
	}

	return &doc, nil
}
