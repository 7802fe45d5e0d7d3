package controllers

import (
	"net/http"
	"strings"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpdateAgencyInput struct {
	Name            *string               `json:"name"`
	Address         *string               `json:"address"`
	Phone           *string               `json:"phone"`
	Email           *string               `json:"email" binding:"omitempty,email"`
	DefaultCurrency *string               `json:"defaultCurrency" binding:"omitempty,len=3"`
	DefaultTaxRate  *services.FlexDecimal `json:"defaultTaxRate"`
}

type NotificationSettingsInput struct {
	AppointmentReminders  bool `json:"appointmentReminders"`
	VisaExpiryReminders   bool `json:"visaExpiryReminders"`
	WhatsAppNotifications bool `json:"whatsAppNotifications"`
	SMSNotifications      bool `json:"smsNotifications"`
}

func GetProfile(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Agency").
		First(&user, "id = ? AND agency_id = ?", userID, agencyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userPayload(user, user.Agency),
		"agency": user.Agency,
	})
}

// UpdateAgency changes the agency details and invoice defaults
func UpdateAgency(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input UpdateAgencyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	agency, err := loadAgency(agencyID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Agency not found")
		return
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			utils.RespondWithValidation(c, map[string]string{"name": "Agency name is required"})
			return
		}
		agency.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		agency.Address = *input.Address
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		agency.Phone = *input.Phone
	}
	if input.Email != nil {
		agency.Email = *input.Email
	}
	if input.DefaultCurrency != nil {
		agency.DefaultCurrency = strings.ToUpper(*input.DefaultCurrency)
	}
	if input.DefaultTaxRate != nil {
		if input.DefaultTaxRate.IsNegative() {
			utils.RespondWithValidation(c, map[string]string{"defaultTaxRate": "Tax rate cannot be negative"})
			return
		}
		agency.DefaultTaxRate = input.DefaultTaxRate.Decimal
	}

	if err := config.DB.Save(&agency).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update agency")
		return
	}

	c.JSON(http.StatusOK, agency)
}

func UpdateNotificationSettings(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input NotificationSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := config.DB.Model(&models.Agency{}).Where("id = ?", agencyID).
		Updates(map[string]interface{}{
			"AppointmentReminders":  input.AppointmentReminders,
			"VisaExpiryReminders":   input.VisaExpiryReminders,
			"WhatsAppNotifications": input.WhatsAppNotifications,
			"SMSNotifications":      input.SMSNotifications,
		}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
