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

// ClientInput is the JSON body for creating a client
type ClientInput struct {
	ClientCode          string                  `json:"clientCode"`
	FirstName           string                  `json:"firstName" binding:"required"`
	LastName            string                  `json:"lastName" binding:"required"`
	Email               string                  `json:"email" binding:"required,email"`
	Phone               string                  `json:"phone" binding:"required"`
	DateOfBirth         *time.Time              `json:"dateOfBirth" binding:"required"`
	Gender              string                  `json:"gender" binding:"required"`
	Address             string                  `json:"address"`
	City                string                  `json:"city"`
	State               string                  `json:"state"`
	ZipCode             string                  `json:"zipCode"`
	PassportNumber      string                  `json:"passportNumber" binding:"required"`
	PassportCountry     string                  `json:"passportCountry" binding:"required"`
	VisaType            string                  `json:"visaType" binding:"required"`
	VisaApplicationDate *time.Time              `json:"visaApplicationDate" binding:"required"`
	VisaExpirationDate  *time.Time              `json:"visaExpirationDate"`
	SpecialRequirements []string                `json:"specialRequirements"`
	CurrentApplications []string                `json:"currentApplications"`
	TravelHistory       []string                `json:"travelHistory"`
	EmergencyContact    models.EmergencyContact `json:"emergencyContact"`
}

// UpdateClientInput defines the expected JSON structure for updating a client
type UpdateClientInput struct {
	ClientCode          *string                  `json:"clientCode"`
	FirstName           *string                  `json:"firstName"`
	LastName            *string                  `json:"lastName"`
	Email               *string                  `json:"email" binding:"omitempty,email"`
	Phone               *string                  `json:"phone"`
	DateOfBirth         *time.Time               `json:"dateOfBirth"`
	Gender              *string                  `json:"gender"`
	Address             *string                  `json:"address"`
	City                *string                  `json:"city"`
	State               *string                  `json:"state"`
	ZipCode             *string                  `json:"zipCode"`
	PassportNumber      *string                  `json:"passportNumber"`
	PassportCountry     *string                  `json:"passportCountry"`
	VisaType            *string                  `json:"visaType"`
	VisaApplicationDate *time.Time               `json:"visaApplicationDate"`
	VisaExpirationDate  *time.Time               `json:"visaExpirationDate"`
	SpecialRequirements *[]string                `json:"specialRequirements"`
	CurrentApplications *[]string                `json:"currentApplications"`
	TravelHistory       *[]string                `json:"travelHistory"`
	EmergencyContact    *models.EmergencyContact `json:"emergencyContact"`
	Status              *string                  `json:"status" binding:"omitempty,oneof=active inactive"`
}

// cleanList trims entries and drops empty ones
func cleanList(items []string) []string {
	out := []string{}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// emailTaken reports whether another client of the agency uses email
func emailTaken(agencyID uuid.UUID, email string, exceptID uuid.UUID) (bool, error) {
	var count int64
	q := config.DB.Model(&models.Client{}).Where("agency_id = ? AND email = ?", agencyID, email)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CreateClient creates a new client for the agency
func CreateClient(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	gender := services.NormalizeGender(input.Gender)
	if gender == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid gender")
		return
	}

	taken, err := emailTaken(agencyID, input.Email, uuid.Nil)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if taken {
		utils.RespondWithError(c, http.StatusConflict, "Client with this email already exists")
		return
	}

	client := models.Client{
		AgencyID:            agencyID,
		CreatedByUserID:     userID,
		ClientCode:          input.ClientCode,
		FirstName:           strings.TrimSpace(input.FirstName),
		LastName:            strings.TrimSpace(input.LastName),
		Email:               strings.TrimSpace(input.Email),
		Phone:               input.Phone,
		DateOfBirth:         input.DateOfBirth,
		Gender:              gender,
		Address:             input.Address,
		City:                input.City,
		State:               input.State,
		ZipCode:             input.ZipCode,
		PassportNumber:      input.PassportNumber,
		PassportCountry:     input.PassportCountry,
		VisaType:            input.VisaType,
		VisaApplicationDate: input.VisaApplicationDate,
		VisaExpirationDate:  input.VisaExpirationDate,
		SpecialRequirements: cleanList(input.SpecialRequirements),
		CurrentApplications: cleanList(input.CurrentApplications),
		TravelHistory:       cleanList(input.TravelHistory),
		EmergencyContact:    input.EmergencyContact,
		Status:              models.ClientStatusActive,
	}

	if err := config.DB.Create(&client).Error; err != nil {
		config.Log.Error("Failed to create client", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients lists the agency's clients, newest first, with optional ?search= and ?status=
func GetClients(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.Client{}).Where("agency_id = ?", agencyID)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(passport_number) LIKE ?",
			like, like, like, like)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	var clients []models.Client
	if err := q.Order("created_at DESC").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(clients, page, pageSize, total))
}

// findClient loads a client of the agency, answering 404/500 itself
func findClient(c *gin.Context, db *gorm.DB, agencyID, clientID uuid.UUID, notFoundStatus int) (*models.Client, bool) {
	var client models.Client
	if err := db.Where("agency_id = ? AND id = ?", agencyID, clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, notFoundStatus, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &client, true
}

// GetClient retrieves a specific client by ID
func GetClient(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	clientID, ok := utils.ParamUUID(c, "id", "client")
	if !ok {
		return
	}

	client, ok := findClient(c, config.DB, agencyID, clientID, http.StatusNotFound)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClient updates an existing client
func UpdateClient(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	clientID, ok := utils.ParamUUID(c, "id", "client")
	if !ok {
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, ok := findClient(c, config.DB, agencyID, clientID, http.StatusNotFound)
	if !ok {
		return
	}

	if input.Email != nil && *input.Email != client.Email {
		taken, err := emailTaken(agencyID, *input.Email, client.ID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if taken {
			utils.RespondWithError(c, http.StatusConflict, "Another client with this email already exists")
			return
		}
		client.Email = *input.Email
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		client.Phone = *input.Phone
	}
	if input.Gender != nil {
		gender := services.NormalizeGender(*input.Gender)
		if gender == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid gender")
			return
		}
		client.Gender = gender
	}

	if input.ClientCode != nil {
		client.ClientCode = *input.ClientCode
	}
	if input.FirstName != nil {
		client.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		client.LastName = *input.LastName
	}
	if input.DateOfBirth != nil {
		client.DateOfBirth = input.DateOfBirth
	}
	if input.Address != nil {
		client.Address = *input.Address
	}
	if input.City != nil {
		client.City = *input.City
	}
	if input.State != nil {
		client.State = *input.State
	}
	if input.ZipCode != nil {
		client.ZipCode = *input.ZipCode
	}
	if input.PassportNumber != nil {
		client.PassportNumber = *input.PassportNumber
	}
	if input.PassportCountry != nil {
		client.PassportCountry = *input.PassportCountry
	}
	if input.VisaType != nil {
		client.VisaType = *input.VisaType
	}
	if input.VisaApplicationDate != nil {
		client.VisaApplicationDate = input.VisaApplicationDate
	}
	if input.VisaExpirationDate != nil {
		client.VisaExpirationDate = input.VisaExpirationDate
	}
	if input.SpecialRequirements != nil {
		client.SpecialRequirements = cleanList(*input.SpecialRequirements)
	}
	if input.CurrentApplications != nil {
		client.CurrentApplications = cleanList(*input.CurrentApplications)
	}
	if input.TravelHistory != nil {
		client.TravelHistory = cleanList(*input.TravelHistory)
	}
	if input.EmergencyContact != nil {
		client.EmergencyContact = *input.EmergencyContact
	}
	if input.Status != nil {
		client.Status = *input.Status
	}

	if strings.TrimSpace(client.FirstName) == "" || strings.TrimSpace(client.LastName) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "First and last name are required")
		return
	}

	if err := config.DB.Save(client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func DeleteClient(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	clientID, ok := utils.ParamUUID(c, "id", "client")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, clientID).
		Delete(&models.Client{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
