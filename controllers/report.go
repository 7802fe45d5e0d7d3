// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportController handles billing analytics
type ReportController struct{}

// AnalyticsSummary represents the billing analytics of an agency
type AnalyticsSummary struct {
	CurrentMonthBilled   decimal.Decimal   `json:"currentMonthBilled"`
	MonthGrowth          decimal.Decimal   `json:"monthGrowth"`
	CurrentQuarterBilled decimal.Decimal   `json:"currentQuarterBilled"`
	QuarterGrowth        decimal.Decimal   `json:"quarterGrowth"`
	CurrentYearBilled    decimal.Decimal   `json:"currentYearBilled"`
	YearGrowth           decimal.Decimal   `json:"yearGrowth"`
	TopItemTypes         []ItemTypeSummary `json:"topItemTypes"`
	TopClients           []ClientSummary   `json:"topClients"`
	QuickStats           QuickStatistics   `json:"quickStats"`
}

type ItemTypeSummary struct {
	ItemType string          `json:"itemType"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ClientSummary struct {
	ClientID  uuid.UUID       `json:"clientId"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Invoices  int             `json:"invoices"`
	Billed    decimal.Decimal `json:"billed"`
}

type QuickStatistics struct {
	TotalClients    int64           `json:"totalClients"`
	TotalInvoices   int64           `json:"totalInvoices"`
	OutstandingDue  decimal.Decimal `json:"outstandingDue"`
	AvgInvoiceValue decimal.Decimal `json:"avgInvoiceValue"`
}

// GetReportAnalytics returns month, quarter and year billing with growth against the previous period
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	now := time.Now()
	currentYear, currentMonth, _ := now.Date()
	loc := now.Location()

	firstOfMonth := time.Date(currentYear, currentMonth, 1, 0, 0, 0, 0, loc)
	quarterStart := QuarterStart(now)
	firstOfYear := time.Date(currentYear, 1, 1, 0, 0, 0, 0, loc)

	type period struct {
		start, end time.Time
	}
	periods := []period{
		{firstOfMonth, firstOfMonth.AddDate(0, 1, 0)},
		{firstOfMonth.AddDate(0, -1, 0), firstOfMonth},
		{quarterStart, quarterStart.AddDate(0, 3, 0)},
		{quarterStart.AddDate(0, -3, 0), quarterStart},
		{firstOfYear, firstOfYear.AddDate(1, 0, 0)},
		{firstOfYear.AddDate(-1, 0, 0), firstOfYear},
	}

	billed := make([]decimal.Decimal, len(periods))
	for i, p := range periods {
		total, err := rc.getBilled(agencyID, p.start, p.end)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get billing totals")
			return
		}
		billed[i] = total
	}

	topItemTypes, err := rc.getTopItemTypes(agencyID, firstOfMonth, firstOfMonth.AddDate(0, 1, 0), 4)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top item types")
		return
	}

	topClients, err := rc.getTopClients(agencyID, firstOfYear, firstOfYear.AddDate(1, 0, 0), 4)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top clients")
		return
	}

	quickStats, err := rc.getQuickStatistics(agencyID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get quick statistics")
		return
	}

	c.JSON(http.StatusOK, AnalyticsSummary{
		CurrentMonthBilled:   billed[0],
		MonthGrowth:          GrowthPercentage(billed[0], billed[1]),
		CurrentQuarterBilled: billed[2],
		QuarterGrowth:        GrowthPercentage(billed[2], billed[3]),
		CurrentYearBilled:    billed[4],
		YearGrowth:           GrowthPercentage(billed[4], billed[5]),
		TopItemTypes:         topItemTypes,
		TopClients:           topClients,
		QuickStats:           quickStats,
	})
}

// billing ignores cancelled invoices; ranges are [start, end)
func (rc *ReportController) getBilled(agencyID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := config.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND issue_date >= ? AND issue_date < ? AND status <> ?",
			agencyID, start, end, models.InvoiceStatusCancelled).
		Pluck("total_amount", &totals).Error
	return decimal.Sum(decimal.Zero, totals...), err
}

// QuarterStart is the first day of the calendar quarter containing date
func QuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month()) - 1) / 3
	return time.Date(date.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, date.Location())
}

// GrowthPercentage compares two periods; growth from nothing counts as 100%
func GrowthPercentage(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func (rc *ReportController) getTopItemTypes(agencyID uuid.UUID, start, end time.Time, limit int) ([]ItemTypeSummary, error) {
	summaries := []ItemTypeSummary{}

	err := config.DB.Table("invoice_line_items").
		Select("invoice_line_items.item_type, COUNT(invoice_line_items.id) as count, SUM(invoice_line_items.amount) as revenue").
		Joins("JOIN invoices ON invoices.id = invoice_line_items.invoice_id").
		Where("invoices.agency_id = ? AND invoices.issue_date >= ? AND invoices.issue_date < ? AND invoices.status <> ? AND invoices.deleted_at IS NULL",
			agencyID, start, end, models.InvoiceStatusCancelled).
		Group("invoice_line_items.item_type").
		Order("revenue DESC").
		Limit(limit).
		Scan(&summaries).Error

	return summaries, err
}

func (rc *ReportController) getTopClients(agencyID uuid.UUID, start, end time.Time, limit int) ([]ClientSummary, error) {
	summaries := []ClientSummary{}

	err := config.DB.Table("invoices").
		Select("clients.id as client_id, clients.first_name, clients.last_name, COUNT(invoices.id) as invoices, SUM(invoices.total_amount) as billed").
		Joins("JOIN clients ON clients.id = invoices.client_id").
		Where("invoices.agency_id = ? AND invoices.issue_date >= ? AND invoices.issue_date < ? AND invoices.status <> ? AND invoices.deleted_at IS NULL AND clients.deleted_at IS NULL",
			agencyID, start, end, models.InvoiceStatusCancelled).
		Group("clients.id, clients.first_name, clients.last_name").
		Order("billed DESC").
		Limit(limit).
		Scan(&summaries).Error

	return summaries, err
}

func (rc *ReportController) getQuickStatistics(agencyID uuid.UUID) (QuickStatistics, error) {
	var stats QuickStatistics

	if err := config.DB.Model(&models.Client{}).
		Where("agency_id = ?", agencyID).
		Count(&stats.TotalClients).Error; err != nil {
		return stats, err
	}

	var totals []decimal.Decimal
	if err := config.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND status <> ?", agencyID, models.InvoiceStatusCancelled).
		Pluck("total_amount", &totals).Error; err != nil {
		return stats, err
	}
	stats.TotalInvoices = int64(len(totals))
	if len(totals) > 0 {
		sum := decimal.Sum(decimal.Zero, totals...)
		stats.AvgInvoiceValue = sum.Div(decimal.NewFromInt(int64(len(totals)))).Round(2)
	}

	var dues []decimal.Decimal
	if err := config.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND status NOT IN ?", agencyID,
			[]string{models.InvoiceStatusCancelled, models.InvoiceStatusPaid}).
		Pluck("due_amount", &dues).Error; err != nil {
		return stats, err
	}
	stats.OutstandingDue = decimal.Sum(decimal.Zero, dues...)

	return stats, nil
}
