package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateDocumentInput struct {
	ClientID     uuid.UUID  `json:"clientId" binding:"required"`
	Name         string     `json:"name" binding:"required"`
	DocumentType string     `json:"documentType" binding:"required"`
	StorageKey   string     `json:"storageKey"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

type UpdateDocumentInput struct {
	Name         *string    `json:"name"`
	DocumentType *string    `json:"documentType"`
	StorageKey   *string    `json:"storageKey"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

type VerifyDocumentInput struct {
	Status string `json:"status" binding:"required,oneof=verified rejected"`
	Notes  string `json:"notes"`
}

// CreateDocument registers the metadata of an uploaded file; it starts out pending
func CreateDocument(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if _, ok := findClient(c, config.DB, agencyID, input.ClientID, http.StatusBadRequest); !ok {
		return
	}

	document := models.Document{
		AgencyID:        agencyID,
		CreatedByUserID: userID,
		ClientID:        input.ClientID,
		Name:            strings.TrimSpace(input.Name),
		DocumentType:    strings.ToLower(strings.TrimSpace(input.DocumentType)),
		StorageKey:      input.StorageKey,
		Status:          models.DocumentStatusPending,
		ExpiresAt:       input.ExpiresAt,
	}
	if err := config.DB.Create(&document).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create document")
		return
	}

	c.JSON(http.StatusCreated, document)
}

// GetDocuments lists documents, filtered by ?status= and ?clientId=
func GetDocuments(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.Document{}).Where("agency_id = ?", agencyID)
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
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve documents")
		return
	}

	var documents []models.Document
	if err := q.Order("created_at DESC").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&documents).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve documents")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(documents, page, pageSize, total))
}

func findDocument(c *gin.Context) (*models.Document, bool) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return nil, false
	}
	documentID, ok := utils.ParamUUID(c, "id", "document")
	if !ok {
		return nil, false
	}

	var document models.Document
	if err := config.DB.Where("agency_id = ? AND id = ?", agencyID, documentID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Document not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &document, true
}

func GetDocument(c *gin.Context) {
	document, ok := findDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, document)
}

// UpdateDocument edits metadata; replacing the file sends it back to pending review
func UpdateDocument(c *gin.Context) {
	var input UpdateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	document, ok := findDocument(c)
	if !ok {
		return
	}

	if input.Name != nil {
		document.Name = strings.TrimSpace(*input.Name)
	}
	if input.DocumentType != nil {
		document.DocumentType = strings.ToLower(strings.TrimSpace(*input.DocumentType))
	}
	if input.ExpiresAt != nil {
		document.ExpiresAt = input.ExpiresAt
	}
	if input.StorageKey != nil && *input.StorageKey != document.StorageKey {
		document.StorageKey = *input.StorageKey
		document.Status = models.DocumentStatusPending
		document.ReviewedAt = nil
		document.ReviewedByUserID = nil
		document.ReviewNotes = ""
	}

	if err := config.DB.Save(document).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update document")
		return
	}

	c.JSON(http.StatusOK, document)
}

// VerifyDocument records a reviewer's decision on a document
func VerifyDocument(c *gin.Context) {
	_, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input VerifyDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Status == models.DocumentStatusRejected && strings.TrimSpace(input.Notes) == "" {
		utils.RespondWithValidation(c, map[string]string{"notes": "A reason is required when rejecting a document"})
		return
	}

	document, ok := findDocument(c)
	if !ok {
		return
	}

	now := time.Now()
	document.Status = input.Status
	document.ReviewNotes = input.Notes
	document.ReviewedAt = &now
	if userID != uuid.Nil {
		document.ReviewedByUserID = &userID
	}

	if err := config.DB.Save(document).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to verify document")
		return
	}

	c.JSON(http.StatusOK, document)
}

func DeleteDocument(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	documentID, ok := utils.ParamUUID(c, "id", "document")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, documentID).
		Delete(&models.Document{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete document")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Document not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}
