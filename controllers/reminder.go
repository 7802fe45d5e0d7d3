// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=appointment visa_expiry"`
	Message string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Type     *string `json:"type" binding:"omitempty,oneof=appointment visa_expiry"`
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// ReminderController exposes reminder logs and manual runs; Service is nil when delivery is not configured
type ReminderController struct {
	Service *services.ReminderService
}

func templateExists(agencyID uuid.UUID, kind string) (bool, error) {
	var existing models.ReminderTemplate
	err := config.DB.Where("agency_id = ? AND type = ?", agencyID, kind).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CreateReminderTemplate creates a new reminder template
func CreateReminderTemplate(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	exists, err := templateExists(agencyID, input.Type)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	}

	template := models.ReminderTemplate{
		AgencyID: agencyID,
		Type:     input.Type,
		Message:  strings.TrimSpace(input.Message),
		IsActive: true,
	}
	if err := config.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates retrieves all reminder templates for the agency
func GetReminderTemplates(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := config.DB.Where("agency_id = ?", agencyID).Order("type").Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

func findTemplate(c *gin.Context) (*models.ReminderTemplate, uuid.UUID, bool) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	templateID, ok := utils.ParamUUID(c, "id", "template")
	if !ok {
		return nil, uuid.Nil, false
	}

	var template models.ReminderTemplate
	if err := config.DB.Where("agency_id = ? AND id = ?", agencyID, templateID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, uuid.Nil, false
	}
	return &template, agencyID, true
}

// GetReminderTemplate retrieves a specific template by ID
func GetReminderTemplate(c *gin.Context) {
	template, _, ok := findTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateReminderTemplate updates an existing template
func UpdateReminderTemplate(c *gin.Context) {
	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, agencyID, ok := findTemplate(c)
	if !ok {
		return
	}

	if input.Type != nil && *input.Type != template.Type {
		exists, err := templateExists(agencyID, *input.Type)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if exists {
			utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
			return
		}
		template.Type = *input.Type
	}
	if input.Message != nil {
		if strings.TrimSpace(*input.Message) == "" {
			utils.RespondWithValidation(c, map[string]string{"message": "Message is required"})
			return
		}
		template.Message = strings.TrimSpace(*input.Message)
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := config.DB.Save(template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate deletes a template; the built-in default applies afterwards
func DeleteReminderTemplate(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	templateID, ok := utils.ParamUUID(c, "id", "template")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, templateID).
		Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// GetReminderLogs lists delivery attempts, newest first, optionally filtered by ?status=
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.ReminderLog{}).Where("agency_id = ?", agencyID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	var logs []models.ReminderLog
	if err := q.Order("sent_at DESC").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(logs, page, pageSize, total))
}

// RunReminders sends the agency's due reminders now instead of waiting for the schedule
func (rc *ReminderController) RunReminders(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	if rc.Service == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, services.ErrReminderDisabled.Error())
		return
	}

	summary, err := rc.Service.RunForAgency(c.Request.Context(), agencyID)
	if err != nil {
		if errors.Is(err, services.ErrReminderDisabled) {
			utils.RespondWithError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		config.Log.Error("Manual reminder run failed", zap.String("agency_id", agencyID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send reminders")
		return
	}

	c.JSON(http.StatusOK, summary)
}
