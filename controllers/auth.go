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

type RegisterInput struct {
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Password      string `json:"password" binding:"required,min=8"`
	AgencyName    string `json:"agencyName" binding:"required"`
	AgencyAddress string `json:"agencyAddress"`
	Currency      string `json:"currency" binding:"omitempty,len=3"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

type StaffInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func userPayload(user models.User, agency models.Agency) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"phone":      user.Phone,
		"role":       user.Role,
		"agencyId":   agency.ID,
		"agencyName": agency.Name,
	}
}

func setTokenCookie(c *gin.Context, token string) {
	expiryHours := config.AppConfig.JWTExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}
	c.SetCookie("token", token, expiryHours*3600, "/", "", true, true)
}

// Register creates an agency together with its owner account
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = config.AppConfig.DefaultCurrency
	}

	agency := models.Agency{
		Name:                 input.AgencyName,
		Address:              input.AgencyAddress,
		Phone:                input.Phone,
		Email:                input.Email,
		DefaultCurrency:      currency,
		AppointmentReminders: true,
		VisaExpiryReminders:  true,
		SMSNotifications:     true,
	}
	owner := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // hashed in BeforeCreate
		Role:     models.RoleOwner,
		IsActive: true,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agency).Error; err != nil {
			return err
		}
		owner.AgencyID = agency.ID
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		return createDefaultReminderTemplates(tx, agency.ID)
	})
	if err != nil {
		config.Log.Error("Registration failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := utils.GenerateToken(owner.ID.String(), agency.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userPayload(owner, agency),
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := config.DB.Preload("Agency").
		Where("email = ? OR phone = ?", identifier, identifier).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.AgencyID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)
	setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user, user.Agency),
	})
}

func createDefaultReminderTemplates(tx *gorm.DB, agencyID uuid.UUID) error {
	for kind, message := range services.DefaultTemplates() {
		template := models.ReminderTemplate{
			AgencyID: agencyID,
			Type:     kind,
			Message:  message,
			IsActive: true,
		}
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
	}
	return nil
}

func Me(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Agency").
		First(&user, "id = ? AND agency_id = ?", userID, agencyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(user, user.Agency)})
}

// GetStaff lists the agency's staff accounts
func GetStaff(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var users []models.User
	if err := config.DB.Where("agency_id = ?", agencyID).Order("created_at").Find(&users).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve staff")
		return
	}
	c.JSON(http.StatusOK, users)
}

// AddStaff lets the agency owner create an agent account
func AddStaff(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var caller models.User
	if err := config.DB.First(&caller, "id = ? AND agency_id = ?", userID, agencyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	if caller.Role != models.RoleOwner {
		utils.RespondWithError(c, http.StatusForbidden, "Only the agency owner can add staff")
		return
	}

	var input StaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	var count int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	}

	agent := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password,
		Role:     models.RoleAgent,
		AgencyID: agencyID,
		IsActive: true,
	}
	if err := config.DB.Create(&agent).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create staff account")
		return
	}

	c.JSON(http.StatusCreated, agent)
}
