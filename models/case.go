package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimelineEvent is one step of a visa case
type TimelineEvent struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Completed  bool      `json:"completed"`
}

// Case tracks one visa application through its workflow stages
type Case struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`

	Reference          string `gorm:"uniqueIndex;not null" json:"reference"`
	VisaType           string `gorm:"not null" json:"visaType"`
	DestinationCountry string `json:"destinationCountry"`
	Stage              string `gorm:"type:varchar(40)" json:"stage"`

	Timeline datatypes.JSONSlice[TimelineEvent] `json:"timeline"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Case) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
