package controllers

import (
	"testing"

	"visadesk-backend/config"
	"visadesk-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// useTestDB points config.DB at a fresh in-memory database for the duration of the test
func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Agency{},
		&models.Client{},
		&models.PriceItem{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	prev := config.DB
	config.DB = db
	t.Cleanup(func() {
		config.DB = prev
		sqlDB.Close()
	})
	return db
}

func seedAgencyClient(t *testing.T, db *gorm.DB) (models.Agency, models.Client) {
	t.Helper()
	agency := models.Agency{Name: "Atlas Visas", DefaultCurrency: "USD"}
	require.NoError(t, db.Create(&agency).Error)

	client := models.Client{
		AgencyID:  agency.ID,
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana@example.com",
		Phone:     "+5511999990000",
	}
	require.NoError(t, db.Create(&client).Error)
	return agency, client
}
