package controllers

import (
	"errors"
	"net/http"

	"visadesk-backend/config"
	"visadesk-backend/models"
	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreatePriceItemInput defines the expected JSON structure for a price list entry
type CreatePriceItemInput struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	ItemType    string               `json:"itemType"`
	UnitPrice   services.FlexDecimal `json:"unitPrice"`
	VisaType    string               `json:"visaType"`
}

// UpdatePriceItemInput defines the expected JSON structure for updating a price list entry
type UpdatePriceItemInput struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	ItemType    *string               `json:"itemType"`
	UnitPrice   *services.FlexDecimal `json:"unitPrice"`
	VisaType    *string               `json:"visaType"`
	IsActive    *bool                 `json:"isActive"`
}

// CreatePriceItem adds an entry to the agency's price list
func CreatePriceItem(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreatePriceItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	itemType := input.ItemType
	if itemType == "" {
		itemType = models.ItemTypeService
	}
	fields := map[string]string{}
	if !models.IsValidItemType(itemType) {
		fields["itemType"] = "Unknown item type"
	}
	if input.UnitPrice.IsNegative() {
		fields["unitPrice"] = "Unit price cannot be negative"
	}
	if len(fields) > 0 {
		utils.RespondWithValidation(c, fields)
		return
	}

	item := models.PriceItem{
		AgencyID:    agencyID,
		Name:        input.Name,
		Description: input.Description,
		ItemType:    itemType,
		UnitPrice:   input.UnitPrice.Decimal,
		VisaType:    input.VisaType,
		IsActive:    true,
	}

	if err := config.DB.Create(&item).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create price item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetPriceItems lists the price list; ?active=true hides retired entries
func GetPriceItems(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	q := config.DB.Where("agency_id = ?", agencyID)
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}

	var items []models.PriceItem
	if err := q.Order("name").Find(&items).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve price list")
		return
	}

	c.JSON(http.StatusOK, items)
}

func findPriceItem(c *gin.Context) (*models.PriceItem, bool) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return nil, false
	}
	itemID, ok := utils.ParamUUID(c, "id", "price item")
	if !ok {
		return nil, false
	}

	var item models.PriceItem
	if err := config.DB.Where("agency_id = ? AND id = ?", agencyID, itemID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Price item not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &item, true
}

// GetPriceItem retrieves one price list entry
func GetPriceItem(c *gin.Context) {
	item, ok := findPriceItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdatePriceItem updates an existing price list entry
func UpdatePriceItem(c *gin.Context) {
	var input UpdatePriceItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	item, ok := findPriceItem(c)
	if !ok {
		return
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.ItemType != nil {
		if !models.IsValidItemType(*input.ItemType) {
			utils.RespondWithValidation(c, map[string]string{"itemType": "Unknown item type"})
			return
		}
		item.ItemType = *input.ItemType
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			utils.RespondWithValidation(c, map[string]string{"unitPrice": "Unit price cannot be negative"})
			return
		}
		item.UnitPrice = input.UnitPrice.Decimal
	}
	if input.VisaType != nil {
		item.VisaType = *input.VisaType
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	if err := config.DB.Save(item).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update price item")
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeletePriceItem soft deletes a price list entry
func DeletePriceItem(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	itemID, ok := utils.ParamUUID(c, "id", "price item")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, itemID).
		Delete(&models.PriceItem{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete price item")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Price item not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Price item deleted successfully"})
}
