package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusNoShow    = "no_show"
)

const (
	PurposeBiometrics         = "biometrics"
	PurposeInterview          = "interview"
	PurposeConsultation       = "consultation"
	PurposeDocumentSubmission = "document_submission"
	PurposeOther              = "other"
)

type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`

	ScheduledAt time.Time `gorm:"index;not null" json:"scheduledAt"`
	Duration    int       `json:"duration"` // minutes
	Purpose     string    `gorm:"type:varchar(30);not null" json:"purpose"`
	Location    string    `json:"location"`
	Status      string    `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	Notes       string    `json:"notes"`

	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	return
}
