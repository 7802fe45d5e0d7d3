package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Canonical gender values
const (
	GenderMale            = "male"
	GenderFemale          = "female"
	GenderOther           = "other"
	GenderPreferNotToSay  = "prefer-not-to-say"
	ClientStatusActive    = "active"
	ClientStatusInactive  = "inactive"
	DefaultClientLastName = "Unknown"
)

type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	ClientCode  string     `json:"clientCode"`
	FirstName   string     `gorm:"not null" json:"firstName"`
	LastName    string     `gorm:"not null" json:"lastName"`
	Email       string     `gorm:"not null;index" json:"email"`
	Phone       string     `gorm:"not null" json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Gender      string     `gorm:"type:varchar(20)" json:"gender"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`

	PassportNumber      string     `gorm:"index" json:"passportNumber"`
	PassportCountry     string     `json:"passportCountry"`
	VisaType            string     `json:"visaType"`
	VisaApplicationDate *time.Time `json:"visaApplicationDate"`
	VisaExpirationDate  *time.Time `gorm:"index" json:"visaExpirationDate"`

	SpecialRequirements datatypes.JSONSlice[string] `json:"specialRequirements"`
	CurrentApplications datatypes.JSONSlice[string] `json:"currentApplications"`
	TravelHistory       datatypes.JSONSlice[string] `json:"travelHistory"`

	EmergencyContact EmergencyContact `gorm:"embedded;embeddedPrefix:emergency_contact_" json:"emergencyContact"`

	Status string `gorm:"type:varchar(20);default:'active'" json:"status"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	return
}

func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsCanonicalGender reports whether g is one of the accepted gender values
func IsCanonicalGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}
