package controllers

import (
	"errors"
	"io"
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

const maxTimelineUpload = 1 << 20

type CreateCaseInput struct {
	ClientID           uuid.UUID `json:"clientId" binding:"required"`
	VisaType           string    `json:"visaType"`
	DestinationCountry string    `json:"destinationCountry"`
}

type CaseEventInput struct {
	Stage      string     `json:"stage" binding:"required"`
	Title      string     `json:"title" binding:"required"`
	Notes      string     `json:"notes"`
	OccurredAt *time.Time `json:"occurredAt"`
	Completed  bool       `json:"completed"`
}

// CreateCase opens a case for a client; the visa type defaults to the client's
func CreateCase(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	var input CreateCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, ok := findClient(c, config.DB, agencyID, input.ClientID, http.StatusBadRequest)
	if !ok {
		return
	}

	visaType := strings.TrimSpace(input.VisaType)
	if visaType == "" {
		visaType = client.VisaType
	}
	if visaType == "" {
		utils.RespondWithValidation(c, map[string]string{"visaType": "Visa type is required"})
		return
	}

	now := time.Now()
	kase := models.Case{
		AgencyID:           agencyID,
		CreatedByUserID:    userID,
		ClientID:           client.ID,
		Reference:          "CASE-" + now.Format("20060102") + "-" + utils.GenerateRandomString(5),
		VisaType:           visaType,
		DestinationCountry: input.DestinationCountry,
		Stage:              services.StageIntake,
	}
	if _, err := services.AppendEvent(&kase, models.TimelineEvent{
		Stage:      services.StageIntake,
		Title:      "Case opened",
		OccurredAt: now,
		Completed:  true,
	}, now); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create case")
		return
	}

	if err := config.DB.Create(&kase).Error; err != nil {
		config.Log.Error("Failed to create case", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create case")
		return
	}

	c.JSON(http.StatusCreated, kase)
}

// GetCases lists cases, filtered by ?stage= and ?clientId=
func GetCases(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	q := config.DB.Model(&models.Case{}).Where("agency_id = ?", agencyID)
	if stage := c.Query("stage"); stage != "" {
		q = q.Where("stage = ?", stage)
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
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve cases")
		return
	}

	var cases []models.Case
	if err := q.Order("updated_at DESC").
		Offset(utils.Offset(page, pageSize)).Limit(pageSize).
		Find(&cases).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve cases")
		return
	}

	c.JSON(http.StatusOK, utils.NewPage(cases, page, pageSize, total))
}

func findCase(c *gin.Context) (*models.Case, bool) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return nil, false
	}
	caseID, ok := utils.ParamUUID(c, "id", "case")
	if !ok {
		return nil, false
	}

	var kase models.Case
	if err := config.DB.Where("agency_id = ? AND id = ?", agencyID, caseID).
		First(&kase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Case not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &kase, true
}

func GetCase(c *gin.Context) {
	kase, ok := findCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, kase)
}

// AddCaseEvent appends a timeline event; the case moves to the stage of its latest event
func AddCaseEvent(c *gin.Context) {
	var input CaseEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	kase, ok := findCase(c)
	if !ok {
		return
	}

	ev := models.TimelineEvent{
		Stage:     strings.TrimSpace(input.Stage),
		Title:     strings.TrimSpace(input.Title),
		Notes:     input.Notes,
		Completed: input.Completed,
	}
	if input.OccurredAt != nil {
		ev.OccurredAt = *input.OccurredAt
	}

	added, err := services.AppendEvent(kase, ev, time.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Model(kase).Select("timeline", "stage").Updates(kase).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update case")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": added, "case": kase})
}

// GetCaseTimeline returns one page of the timeline in chronological order
func GetCaseTimeline(c *gin.Context) {
	kase, ok := findCase(c)
	if !ok {
		return
	}
	page, pageSize := utils.PageParams(c)

	c.JSON(http.StatusOK, utils.Paginate([]models.TimelineEvent(kase.Timeline), page, pageSize))
}

// ExportCaseTimeline downloads the timeline as a JSON file
func ExportCaseTimeline(c *gin.Context) {
	kase, ok := findCase(c)
	if !ok {
		return
	}

	data, err := services.ExportTimeline(kase, time.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to export timeline")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+kase.Reference+`-timeline.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportCaseTimeline replaces the timeline with an uploaded export (multipart "file" or raw JSON body)
func ImportCaseTimeline(c *gin.Context) {
	kase, ok := findCase(c)
	if !ok {
		return
	}

	var reader io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxTimelineUpload)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "No file uploaded")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Unable to open uploaded file")
			return
		}
		defer file.Close()
		reader = io.LimitReader(file, maxTimelineUpload)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Unable to read timeline")
		return
	}

	events, err := services.ImportTimeline(data)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	kase.Timeline = events
	kase.Stage = services.CurrentStage(events)
	if err := config.DB.Model(kase).Select("timeline", "stage").Updates(kase).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update case")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Timeline imported",
		"eventCount": len(events),
		"case":       kase,
	})
}

func DeleteCase(c *gin.Context) {
	agencyID, _, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}
	caseID, ok := utils.ParamUUID(c, "id", "case")
	if !ok {
		return
	}

	result := config.DB.Where("agency_id = ? AND id = ?", agencyID, caseID).Delete(&models.Case{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete case")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Case not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Case deleted successfully"})
}
