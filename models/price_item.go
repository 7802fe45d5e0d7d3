package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceItem is an entry of the agency's price list, used to prefill invoice lines
type PriceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"agencyId"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	ItemType    string          `gorm:"type:varchar(20);default:'service'" json:"itemType"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"unitPrice"`
	VisaType    string          `json:"visaType"`
	IsActive    bool            `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *PriceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
