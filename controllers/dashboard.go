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
	"gorm.io/gorm"
)

const upcomingAppointmentDays = 7

type DashboardOverview struct {
	TotalClients         int64                 `json:"totalClients"`
	MonthlyBilled        decimal.Decimal       `json:"monthlyBilled"`
	OutstandingDue       decimal.Decimal       `json:"outstandingDue"`
	TotalInvoices        int64                 `json:"totalInvoices"`
	UpcomingAppointments []UpcomingAppointment `json:"upcomingAppointments"`
	ExpiringVisas        []ExpiringItem        `json:"expiringVisas"`
	PendingDocuments     int64                 `json:"pendingDocuments"`
	ExpiringDocuments    []ExpiringItem        `json:"expiringDocuments"`
	RecentClients        []RecentClient        `json:"recentClients"`
}

type UpcomingAppointment struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"clientName"`
	Purpose    string    `json:"purpose"`
	When       string    `json:"when"` // e.g. "Tomorrow", "3 days"
	At         time.Time `json:"at"`
}

type ExpiringItem struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Detail     string    `json:"detail"`
	ExpiresIn  string    `json:"expiresIn"`
	ExpiryDate time.Time `json:"expiryDate"`
}

type RecentClient struct {
	Name     string `json:"name"`
	VisaType string `json:"visaType"`
	Added    string `json:"added"` // e.g. "Today", "Yesterday"
}

// sumColumn adds up a money column with the query's filters
func sumColumn(q *gorm.DB, column string) decimal.Decimal {
	var values []decimal.Decimal
	if err := q.Pluck(column, &values).Error; err != nil {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...)
}

func GetDashboardOverview(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	now := time.Now()
	today := utils.BeginningOfDay(now)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	window := config.AppConfig.VisaExpiryWindowDays
	if window <= 0 {
		window = 30
	}
	horizon := today.AddDate(0, 0, window+1)

	overview := DashboardOverview{
		UpcomingAppointments: []UpcomingAppointment{},
		ExpiringVisas:        []ExpiringItem{},
		ExpiringDocuments:    []ExpiringItem{},
		RecentClients:        []RecentClient{},
	}

	config.DB.Model(&models.Client{}).Where("agency_id = ?", agencyID).Count(&overview.TotalClients)
	config.DB.Model(&models.Invoice{}).Where("agency_id = ?", agencyID).Count(&overview.TotalInvoices)

	overview.MonthlyBilled = sumColumn(config.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND issue_date >= ? AND status <> ?", agencyID, firstOfMonth, models.InvoiceStatusCancelled),
		"total_amount")
	overview.OutstandingDue = sumColumn(config.DB.Model(&models.Invoice{}).
		Where("agency_id = ? AND status NOT IN ?", agencyID, []string{models.InvoiceStatusCancelled, models.InvoiceStatusPaid}),
		"due_amount")

	var appointments []models.Appointment
	config.DB.Preload("Client").
		Where("agency_id = ? AND status = ? AND scheduled_at >= ? AND scheduled_at < ?",
			agencyID, models.AppointmentStatusScheduled, today, today.AddDate(0, 0, upcomingAppointmentDays)).
		Order("scheduled_at").Limit(10).
		Find(&appointments)
	for _, a := range appointments {
		name := ""
		if a.Client != nil {
			name = a.Client.FullName()
		}
		overview.UpcomingAppointments = append(overview.UpcomingAppointments, UpcomingAppointment{
			ID:         a.ID,
			ClientName: name,
			Purpose:    a.Purpose,
			When:       utils.RelativeDayLabel(now, a.ScheduledAt),
			At:         a.ScheduledAt,
		})
	}

	var clients []models.Client
	config.DB.Where("agency_id = ? AND status = ? AND visa_expiration_date >= ? AND visa_expiration_date < ?",
		agencyID, models.ClientStatusActive, today, horizon).
		Order("visa_expiration_date").Limit(10).
		Find(&clients)
	for _, cl := range clients {
		overview.ExpiringVisas = append(overview.ExpiringVisas, ExpiringItem{
			ID:         cl.ID,
			Name:       cl.FullName(),
			Detail:     cl.VisaType,
			ExpiresIn:  utils.RelativeDayLabel(now, *cl.VisaExpirationDate),
			ExpiryDate: *cl.VisaExpirationDate,
		})
	}

	config.DB.Model(&models.Document{}).
		Where("agency_id = ? AND status = ?", agencyID, models.DocumentStatusPending).
		Count(&overview.PendingDocuments)

	var documents []models.Document
	config.DB.Where("agency_id = ? AND status <> ? AND expires_at >= ? AND expires_at < ?",
		agencyID, models.DocumentStatusRejected, today, horizon).
		Order("expires_at").Limit(10).
		Find(&documents)
	for _, d := range documents {
		overview.ExpiringDocuments = append(overview.ExpiringDocuments, ExpiringItem{
			ID:         d.ID,
			Name:       d.Name,
			Detail:     d.DocumentType,
			ExpiresIn:  utils.RelativeDayLabel(now, *d.ExpiresAt),
			ExpiryDate: *d.ExpiresAt,
		})
	}

	var recent []models.Client
	config.DB.Where("agency_id = ?", agencyID).Order("created_at DESC").Limit(3).Find(&recent)
	for _, cl := range recent {
		overview.RecentClients = append(overview.RecentClients, RecentClient{
			Name:     cl.FullName(),
			VisaType: cl.VisaType,
			Added:    utils.RelativeDayLabel(now, cl.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, overview)
}
