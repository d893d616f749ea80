package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResumeDocument records an uploaded resume PDF kept on local storage.
type ResumeDocument struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"originalFilename"`
	FilePath         string    `gorm:"type:text" json:"-"`
	PageCount        int       `json:"pageCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (d *ResumeDocument) TableName() string {
	return "resume_documents"
}

func (d *ResumeDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
