package services

import (
	"context"
	"strings"
	"testing"

	"visadesk-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormClientStore(t *testing.T) {
	db := newTestDB(t)
	store := NewGormClientStore(db)
	ctx := context.Background()

	agencyID := uuid.New()
	otherAgency := uuid.New()

	client := &models.Client{
		AgencyID:            agencyID,
		FirstName:           "Ana",
		LastName:            "Silva",
		Email:               "ana@example.com",
		Phone:               "+5511999990000",
		SpecialRequirements: []string{"wheelchair access"},
	}
	require.NoError(t, store.Create(ctx, client))
	assert.NotEqual(t, uuid.Nil, client.ID)

	tests := []struct {
		name     string
		agencyID uuid.UUID
		email    string
		want     bool
	}{
		{"same agency exact email", agencyID, "ana@example.com", true},
		{"different case is a different email", agencyID, "Ana@Example.com", false},
		{"other agency", otherAgency, "ana@example.com", false},
		{"unknown email", agencyID, "bruno@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := store.ExistsByEmail(ctx, tt.agencyID, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}

	var saved models.Client
	require.NoError(t, db.First(&saved, "id = ?", client.ID).Error)
	assert.Equal(t, []string{"wheelchair access"}, []string(saved.SpecialRequirements))
	assert.Equal(t, models.ClientStatusActive, saved.Status)
}

func TestImportClients_WithGormStore(t *testing.T) {
	db := newTestDB(t)
	rows, err := ReadCSVRows(strings.NewReader(csvHeader + validRow("ana@example.com") + validRow("ana@example.com")))
	require.NoError(t, err)

	agencyID := uuid.New()
	report, err := NewClientImporter(NewGormClientStore(db), nil).ImportClients(context.Background(), agencyID, uuid.New(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ImportedCount)
	assert.Equal(t, 1, report.ErrorCount)

	var count int64
	require.NoError(t, db.Model(&models.Client{}).Where("agency_id = ?", agencyID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
