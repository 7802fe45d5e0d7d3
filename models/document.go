package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocumentStatusPending  = "pending"
	DocumentStatusVerified = "verified"
	DocumentStatusRejected = "rejected"
)

// Document is the metadata of an uploaded file; the bytes live in external storage
type Document struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`

	Name         string     `gorm:"not null" json:"name"`
	DocumentType string     `gorm:"type:varchar(40);not null" json:"documentType"`
	StorageKey   string     `json:"storageKey"`
	Status       string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ExpiresAt    *time.Time `gorm:"index" json:"expiresAt"`

	ReviewedByUserID *uuid.UUID `gorm:"type:uuid" json:"reviewedByUserId"`
	ReviewedAt       *time.Time `json:"reviewedAt"`
	ReviewNotes      string     `json:"reviewNotes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = DocumentStatusPending
	}
	return
}
