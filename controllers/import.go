package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/octet-stream": true,
	"":                         true,
}

// ImportController handles bulk client uploads
type ImportController struct {
	Store          services.ClientStore
	Logger         *zap.Logger
	MaxUploadBytes int64
}

func NewImportController(store services.ClientStore, logger *zap.Logger, maxUploadBytes int64) *ImportController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportController{Store: store, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

// ImportClients accepts a multipart CSV under "file" and imports it row by row
func (ic *ImportController) ImportClients(c *gin.Context) {
	agencyID, userID, ok := utils.CurrentAgency(c)
	if !ok {
		return
	}

	if ic.MaxUploadBytes > 0 {
		if c.Request.ContentLength > ic.MaxUploadBytes {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		utils.RespondWithError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".csv" || !csvContentTypes[contentType] {
		utils.RespondWithError(c, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Unable to open uploaded file")
		return
	}
	defer file.Close()

	rows, err := services.ReadCSVRows(file)
	if err != nil {
		if services.IsCSVReadError(err) {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		ic.Logger.Error("Failed to read client CSV", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to import clients")
		return
	}

	importer := services.NewClientImporter(ic.Store, ic.Logger)
	report, err := importer.ImportClients(c.Request.Context(), agencyID, userID, rows)
	if err != nil {
		ic.Logger.Error("Client import aborted",
			zap.String("agency_id", agencyID.String()),
			zap.Int("imported", report.ImportedCount),
			zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to import clients")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Imported %d clients with %d errors", report.ImportedCount, report.ErrorCount),
		"importedCount": report.ImportedCount,
		"errorCount":    report.ErrorCount,
		"errors":        report.Errors,
	})
}
