package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Agency is the tenant every other record belongs to
type Agency struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"not null" json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email"`

	DefaultCurrency string          `gorm:"type:varchar(3);default:'USD'" json:"defaultCurrency"`
	DefaultTaxRate  decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"defaultTaxRate"`

	AppointmentReminders  bool `gorm:"default:true" json:"appointmentReminders"`
	VisaExpiryReminders   bool `gorm:"default:true" json:"visaExpiryReminders"`
	WhatsAppNotifications bool `gorm:"default:false" json:"whatsAppNotifications"`
	SMSNotifications      bool `gorm:"default:true" json:"smsNotifications"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Agency) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// RemindersEnabled reports whether any reminder channel is switched on
func (a *Agency) RemindersEnabled() bool {
	return (a.AppointmentReminders || a.VisaExpiryReminders) &&
		(a.SMSNotifications || a.WhatsAppNotifications)
}
