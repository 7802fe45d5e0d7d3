// controllers/invoice.go
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceItemInput is one line as typed into the invoice form.
// Numbers may arrive as strings; anything non-numeric counts as zero.
type InvoiceItemInput struct {
	PriceItemID *uuid.UUID            `json:"priceItemId"`
	Description string                `json:"description"`
	ItemType    string                `json:"itemType"`
	Quantity    services.FlexDecimal  `json:"quantity"`
	UnitPrice   *services.FlexDecimal `json:"unitPrice"`
}

// CreateInvoiceInput defines the expected JSON structure for creating an invoice
type CreateInvoiceInput struct {
	ClientID      uuid.UUID             `json:"clientId" binding:"required"`
	IssueDate     *time.Time            `json:"issueDate"`
	DueDate       *time.Time            `json:"dueDate"`
	Currency      string                `json:"currency" binding:"omitempty,len=3"`
	Status        string                `json:"status" binding:"omitempty,oneof=draft sent paid partially_paid overdue cancelled"`
	TaxRate       *services.FlexDecimal `json:"taxRate"`
	DepositAmount services.FlexDecimal  `json:"depositAmount"`
	Items         []InvoiceItemInput    `json:"items"`
	Notes         string                `json:"notes"`
}

// UpdateInvoiceInput defines the expected JSON structure for updating an invoice
type UpdateInvoiceInput struct {
	IssueDate     *time.Time            `json:"issueDate"`
	DueDate       *time.Time            `json:"dueDate"`
	Currency      *string               `json:"currency" binding:"omitempty,len=3"`
	Status        *string               `json:"status" binding:"omitempty,oneof=draft sent paid partially_paid overdue cancelled"`
	TaxRate       *services.FlexDecimal `json:"taxRate"`
	DepositAmount *services.FlexDecimal `json:"depositAmount"`
	Items         *[]InvoiceItemInput   `json:"items"`
	Notes         *string               `json:"notes"`
}

// PreviewInvoiceInput is the form state sent while the user is still typing
type PreviewInvoiceInput struct {
	Currency      string               `json:"currency"`
	TaxRate       services.FlexDecimal `json:"taxRate"`
	DepositAmount services.FlexDecimal `json:"depositAmount"`
	Items         []InvoiceItemInput   `json:"items"`
}

// BuildLineItems turns form lines into invoice lines with recomputed amounts.
// A line referencing the price list inherits its description, type and price unless overridden.
func BuildLineItems(inputs []InvoiceItemInput, catalog map[uuid.UUID]models.PriceItem) []models.InvoiceLineItem {
	items := make([]models.InvoiceLineItem, 0, len(inputs))
	for i, in := range inputs {
		item := models.InvoiceLineItem{
			Position:    i,
			Description: strings.TrimSpace(in.Description),
			ItemType:    in.ItemType,
			Quantity:    in.Quantity.Decimal,
		}
		if in.UnitPrice != nil {
			item.UnitPrice = in.UnitPrice.Decimal
		}

		if in.PriceItemID != nil {
			if p, ok := catalog[*in.PriceItemID]; ok {
				if item.Description == "" {
					item.Description = p.Name
				}
				if item.ItemType == "" {
					item.ItemType = p.ItemType
				}
				if in.UnitPrice == nil {
					item.UnitPrice = p.UnitPrice
				}
			}
		}
		if item.ItemType == "" {
			item.ItemType = models.ItemTypeService
		}

		services.RecomputeLineAmount(&item)
		items = append(items, item)
	}
	return items
}

// loadCatalog fetches the price list entries referenced by the form lines
func loadCatalog(db *gorm.DB, agencyID uuid.UUID, inputs []InvoiceItemInput) (map[uuid.UUID]models.PriceItem, error) {
	var ids []uuid.UUID
	for _, in := range inputs {
		if in.PriceItemID != nil {
			ids = append(ids, *in.PriceItemID)
		}
	}
	catalog := make(map[uuid.UUID]models.PriceItem, len(ids))
	if len(ids) == 0 {
		return catalog, nil
	}

	var found []models.PriceItem
	if err := db.Where("agency_id = ? AND id IN ?", agencyID, ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, p := range found {
		catalog[p.ID] = p
	}
	return catalog, nil
}

func loadAgency(agencyID uuid.UUID) (models.Agency, error) {
	var agency models.Agency
	err := config.DB.First(&agency, "id = ?", agencyID).Error
	return agency, err
}

// PreviewInvoice runs the calculator without saving anything
func PreviewInvoice(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input PreviewInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	catalog, err := loadCatalog(config.DB, agencyID, input.Items)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = config.AppConfig.DefaultCurrency
	}

	items := BuildLineItems(input.Items, catalog)
	totals := services.ComputeTotals(items, input.TaxRate.Decimal, input.DepositAmount.Decimal)

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"totals":  totals,
		"display": services.DisplayTotals(currency, totals),
		"fields":  services.ValidateInvoice(items, totals),
	})
}

// CreateInvoice creates a new invoice for the agency
func CreateInvoice(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if _, ok := findClient(c, config.DB, agencyID, input.ClientID, http.StatusBadRequest); !ok {
		return
	}

	agency, err := loadAgency(agencyID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	catalog, err := loadCatalog(config.DB, agencyID, input.Items)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	taxRate := agency.DefaultTaxRate
	if input.TaxRate != nil {
		taxRate = input.TaxRate.Decimal
	}

	items := BuildLineItems(input.Items, catalog)
	totals := services.ComputeTotals(items, taxRate, input.DepositAmount.Decimal)
	if fields := services.ValidateInvoice(items, totals); len(fields) > 0 {
		utils.RespondWithValidation(c, fields)
		return
	}

	issueDate := time.Now()
	if input.IssueDate != nil {
		issueDate = *input.IssueDate
	}
	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = agency.DefaultCurrency
	}
	status := input.Status
	if status == "" {
		status = models.InvoiceStatusDraft
	}

	invoice := models.Invoice{
		AgencyID:        agencyID,
		CreatedByUserID: userID,
		ClientID:        input.ClientID,
		IssueDate:       issueDate,
		DueDate:         input.DueDate,
		Currency:        currency,
		Status:          status,
		TaxRate:         taxRate,
		Notes:           input.Notes,
		Items:           items,
	}
	services.ApplyTotals(&invoice, totals)
	invoice.InvoiceNumber = "INV-" + issueDate.Format("20060102") + "-" + utils.GenerateRandomString(6)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// line items are saved through the association
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		config.Log.Error("Failed to create invoice", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices lists invoices newest first, optionally filtered by ?status= and ?clientId=
func GetInvoices(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.Invoice{}).Where("agency_id = ?", agencyID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if clientID := c.Query("clientId"); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		q = q.Where("client_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	var invoices []models.Invoice
	if err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("issue_date DESC, created_at DESC").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(invoices, page, pageSize, total))
}

func findInvoice(c *gin.Context, agencyID uuid.UUID) (*models.Invoice, bool) {
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return nil, false
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("agency_id = ? AND id = ?", agencyID, invoiceID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &invoice, true
}

// GetInvoice retrieves a specific invoice by ID, with display strings for its totals
func GetInvoice(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	invoice, ok := findInvoice(c, agencyID)
	if !ok {
		return
	}

	totals := services.InvoiceTotals{
		Subtotal:      invoice.Subtotal,
		TaxAmount:     invoice.TaxAmount,
		TotalAmount:   invoice.TotalAmount,
		DepositAmount: invoice.DepositAmount,
		DueAmount:     invoice.DueAmount,
	}
	display := services.DisplayTotals(invoice.Currency, totals)
	display["paidAmount"] = services.FormatMoney(invoice.Currency, invoice.PaidAmount)
	c.JSON(http.StatusOK, gin.H{
		"invoice": invoice,
		"display": display,
	})
}

// UpdateInvoice edits an invoice; totals are always recomputed from the resulting lines
func UpdateInvoice(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	invoice, ok := findInvoice(c, agencyID)
	if !ok {
		return
	}

	items := invoice.Items
	if input.Items != nil {
		catalog, err := loadCatalog(config.DB, agencyID, *input.Items)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		items = BuildLineItems(*input.Items, catalog)
	}

	taxRate := invoice.TaxRate
	if input.TaxRate != nil {
		taxRate = input.TaxRate.Decimal
	}
	deposit := invoice.DepositAmount
	if input.DepositAmount != nil {
		deposit = input.DepositAmount.Decimal
	}

	totals := services.ComputeTotals(items, taxRate, deposit)
	fields := services.ValidateInvoice(items, totals)
	for k, v := range services.ValidateAgainstPayments(totals, invoice.PaidAmount) {
		fields[k] = v
	}
	if len(fields) > 0 {
		utils.RespondWithValidation(c, fields)
		return
	}

	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}
	if input.Currency != nil {
		invoice.Currency = strings.ToUpper(*input.Currency)
	}
	if input.Status != nil {
		invoice.Status = *input.Status
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}
	invoice.TaxRate = taxRate
	services.ApplyTotals(invoice, totals)
	services.ApplyPayments(invoice)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if input.Items != nil {
			if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].ID = uuid.Nil
				items[i].InvoiceID = invoice.ID
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		invoice.Items = nil
		return tx.Save(invoice).Error
	})
	if err != nil {
		config.Log.Error("Failed to update invoice", zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	invoice.Items = items
	c.JSON(http.StatusOK, invoice)
}

// RecordPayment adds to the amount paid and moves the invoice to paid or partially_paid
func RecordPayment(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input struct {
		Amount services.FlexDecimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !input.Amount.IsPositive() {
		utils.RespondWithValidation(c, map[string]string{"amount": "Amount must be greater than 0"})
		return
	}

	invoice, ok := findInvoice(c, agencyID)
	if !ok {
		return
	}
	if invoice.Status == models.InvoiceStatusCancelled {
		utils.RespondWithError(c, http.StatusConflict, "Cannot record a payment on a cancelled invoice")
		return
	}
	if input.Amount.GreaterThan(invoice.DueAmount) {
		utils.RespondWithValidation(c, map[string]string{"amount": "Payment cannot exceed the due amount"})
		return
	}

	invoice.PaidAmount = invoice.PaidAmount.Add(input.Amount.Decimal)
	services.ApplyPayments(invoice)

	if err := config.DB.Model(invoice).Omit("Items").Updates(map[string]interface{}{
		"paid_amount": invoice.PaidAmount,
		"due_amount":  invoice.DueAmount,
		"status":      invoice.Status,
	}).Error; err != nil {
		config.Log.Error("Failed to record payment", zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice soft deletes an invoice
func DeleteInvoice(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, invoiceID).
		Delete(&models.Invoice{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}
