package services

import (
	"context"

	"visadesk-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientStore persists clients with gorm
type GormClientStore struct {
	db *gorm.DB
}

func NewGormClientStore(db *gorm.DB) *GormClientStore {
	return &GormClientStore{db: db}
}

// ExistsByEmail matches the email exactly, case included, within the agency
func (s *GormClientStore) ExistsByEmail(ctx context.Context, agencyID uuid.UUID, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("agency_id = ? AND email = ?", agencyID, email).
		Count(&count).Error
	return count > 0, err
}

func (s *GormClientStore) Create(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}
