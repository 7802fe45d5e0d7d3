package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"
)

const (
	ItemTypeService      = "service"
	ItemTypeFee          = "fee"
	ItemTypeConsultation = "consultation"
	ItemTypeProcessing   = "processing"
	ItemTypeOther        = "other"
)

type Invoice struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"agencyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	ClientID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"clientId"`
	IssueDate     time.Time  `json:"issueDate"`
	DueDate       *time.Time `json:"dueDate"`
	Currency      string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status        string     `gorm:"type:varchar(20);default:'draft'" json:"status"`

	TaxRate       decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"taxRate"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"taxAmount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"totalAmount"`
	DepositAmount decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"depositAmount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"paidAmount"`
	DueAmount     decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"dueAmount"`
	Notes         string          `json:"notes"`

	Items []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"items"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

type InvoiceLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"invoiceId"`
	Position    int             `json:"position"`
	Description string          `gorm:"not null" json:"description"`
	ItemType    string          `gorm:"type:varchar(20);default:'service'" json:"itemType"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"unitPrice"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"amount"`
}

func (li *InvoiceLineItem) BeforeCreate(tx *gorm.DB) (err error) {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return
}

// IsValidItemType reports whether t is one of the line item categories
func IsValidItemType(t string) bool {
	switch t {
	case ItemTypeService, ItemTypeFee, ItemTypeConsultation, ItemTypeProcessing, ItemTypeOther:
		return true
	}
	return false
}
