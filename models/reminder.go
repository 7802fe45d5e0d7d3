package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderTypeAppointment = "appointment"
	ReminderTypeVisaExpiry  = "visa_expiry"
)

type ReminderTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID  uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

type ReminderLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"agencyId"`
	ClientID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"clientId"`
	TemplateID   *uuid.UUID `gorm:"type:uuid" json:"templateId"`
	Type         string     `gorm:"type:varchar(20)" json:"type"`
	Message      string     `gorm:"type:text" json:"message"`
	Status       string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string     `gorm:"type:text" json:"errorMessage"`
	Channel      string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt       time.Time  `json:"sentAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
