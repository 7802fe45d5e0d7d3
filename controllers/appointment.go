package controllers

import (
	"errors"
	"net/http"
	"time"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAppointmentInput struct {
	ClientID    uuid.UUID `json:"clientId" binding:"required"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Duration    int       `json:"duration" binding:"min=0"`
	Purpose     string    `json:"purpose" binding:"required,oneof=biometrics interview consultation document_submission other"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
}

type UpdateAppointmentInput struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
	Duration    *int       `json:"duration" binding:"omitempty,min=0"`
	Purpose     *string    `json:"purpose" binding:"omitempty,oneof=biometrics interview consultation document_submission other"`
	Location    *string    `json:"location"`
	Status      *string    `json:"status" binding:"omitempty,oneof=scheduled completed cancelled no_show"`
	Notes       *string    `json:"notes"`
}

// CreateAppointment books an appointment for a client of the agency
func CreateAppointment(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, ok := findClient(c, config.DB, agencyID, input.ClientID, http.StatusBadRequest)
	if !ok {
		return
	}

	appointment := models.Appointment{
		AgencyID:        agencyID,
		CreatedByUserID: userID,
		ClientID:        client.ID,
		ScheduledAt:     input.ScheduledAt,
		Duration:        input.Duration,
		Purpose:         input.Purpose,
		Location:        input.Location,
		Status:          models.AppointmentStatusScheduled,
		Notes:           input.Notes,
	}
	if err := config.DB.Create(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	appointment.Client = client
	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments lists appointments in schedule order, optionally bounded by ?from= and ?to=
func GetAppointments(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.Appointment{}).Where("agency_id = ?", agencyID)
	if raw := c.Query("from"); raw != "" {
		from, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date")
			return
		}
		q = q.Where("scheduled_at >= ?", utils.BeginningOfDay(from))
	}
	if raw := c.Query("to"); raw != "" {
		to, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date")
			return
		}
		q = q.Where("scheduled_at < ?", utils.BeginningOfDay(to).AddDate(0, 0, 1))
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		q = q.Where("client_id = ?", clientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	var appointments []models.Appointment
	if err := q.Preload("Client").
		Order("scheduled_at").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(appointments, page, pageSize, total))
}

func findAppointment(c *gin.Context) (*models.Appointment, bool) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return nil, false
	}
	appointmentID, ok := utils.ParamUUID(c, "id", "appointment")
	if !ok {
		return nil, false
	}

	var appointment models.Appointment
	if err := config.DB.Preload("Client").
		Where("agency_id = ? AND id = ?", agencyID, appointmentID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &appointment, true
}

func GetAppointment(c *gin.Context) {
	appointment, ok := findAppointment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment reschedules or closes an appointment
func UpdateAppointment(c *gin.Context) {
	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appointment, ok := findAppointment(c)
	if !ok {
		return
	}

	if input.ScheduledAt != nil {
		appointment.ScheduledAt = *input.ScheduledAt
	}
	if input.Duration != nil {
		appointment.Duration = *input.Duration
	}
	if input.Purpose != nil {
		appointment.Purpose = *input.Purpose
	}
	if input.Location != nil {
		appointment.Location = *input.Location
	}
	if input.Status != nil {
		appointment.Status = *input.Status
	}
	if input.Notes != nil {
		appointment.Notes = *input.Notes
	}

	if err := config.DB.Omit("Client").Save(appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	c.JSON(http.StatusOK, appointment)
}

func DeleteAppointment(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	appointmentID, ok := utils.ParamUUID(c, "id", "appointment")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, appointmentID).
		Delete(&models.Appointment{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
