package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	clients []*models.Client
}

func (s *memoryStore) ExistsByEmail(_ context.Context, agencyID uuid.UUID, email string) (bool, error) {
	for _, c := range s.clients {
		if c.AgencyID == agencyID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Create(_ context.Context, client *models.Client) error {
	s.clients = append(s.clients, client)
	return nil
}

func importRouter(store *memoryStore, agencyID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextAgencyID, agencyID.String())
		c.Set(utils.ContextUserID, uuid.NewString())
		c.Next()
	})
	ic := NewImportController(store, nil, 1<<20)
	r.POST("/api/import/clients", ic.ImportClients)
	return r
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/clients", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const importHeader = "First Name,Last Name,Email,Phone,Date of Birth,Gender,Passport Number,Passport Country,Visa Type,Visa Application Date\n"

func TestImportClients_Summary(t *testing.T) {
	store := &memoryStore{}
	agencyID := uuid.New()
	csv := importHeader +
		"Ana,Silva,ana@example.com,+5511999990000,1990-04-12,female,P1234567,BR,Tourist,2024-01-15\n" +
		"Bruno,Costa,bruno@example.com,,1985-02-01,male,P7654321,BR,Work,2024-02-01\n"

	w := httptest.NewRecorder()
	importRouter(store, agencyID).ServeHTTP(w, uploadRequest(t, "file", "clients.csv", csv))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Message       string   `json:"message"`
		ImportedCount int      `json:"importedCount"`
		ErrorCount    int      `json:"errorCount"`
		Errors        []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Imported 1 clients with 1 errors", body.Message)
	assert.Equal(t, 1, body.ImportedCount)
	assert.Equal(t, 1, body.ErrorCount)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "Row 3")

	require.Len(t, store.clients, 1)
	assert.Equal(t, agencyID, store.clients[0].AgencyID)
}

func TestImportClients_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  string
		wantErr  string
	}{
		{"no file", "upload", "clients.csv", importHeader, "No file uploaded"},
		{"wrong extension", "file", "clients.txt", importHeader, "Only CSV files are allowed"},
		{"empty csv", "file", "clients.csv", "", "CSV file has no header row"},
		{"malformed csv", "file", "clients.csv", importHeader + "\"Ana,Silva\n", "CSV file could not be parsed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			w := httptest.NewRecorder()
			importRouter(store, uuid.New()).ServeHTTP(w, uploadRequest(t, tt.field, tt.filename, tt.content))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
			assert.Empty(t, store.clients)
		})
	}
}

func TestImportClients_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/import/clients", NewImportController(&memoryStore{}, nil, 0).ImportClients)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "file", "clients.csv", importHeader))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportClients_TooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agencyID := uuid.New()
	store := &memoryStore{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextAgencyID, agencyID.String())
		c.Next()
	})
	r.POST("/api/import/clients", NewImportController(store, nil, 512).ImportClients)

	row := "Ana,Silva,ana@example.com,+5511999990000,1990-04-12,female,P1234567,BR,Tourist,2024-01-15\n"
	csv := importHeader + strings.Repeat(row, 50)

	tests := []struct {
		name          string
		contentLength int64
	}{
		{"declared length", 0},
		{"streamed body", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, "file", "clients.csv", csv)
			if tt.contentLength != 0 {
				req.ContentLength = tt.contentLength
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.JSONEq(t, `{"error": "File too large"}`, w.Body.String())
			assert.Empty(t, store.clients)
		})
	}
}
