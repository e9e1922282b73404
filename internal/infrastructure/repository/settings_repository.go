package repository

import (
	"context"
	"errors"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"gorm.io/gorm"
)

type receiptSettingsRepository struct {
	db *gorm.DB
}

// NewReceiptSettingsRepository creates a new receipt settings repository
func NewReceiptSettingsRepository(db *gorm.DB) repository.ReceiptSettingsRepository {
	return &receiptSettingsRepository{db: db}
}

// Get retrieves the oldest settings row
func (r *receiptSettingsRepository) Get(ctx context.Context) (*entity.ReceiptSettings, error) {
	var settings entity.ReceiptSettings
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Create creates the settings row
func (r *receiptSettingsRepository) Create(ctx context.Context, settings *entity.ReceiptSettings) error {
	return r.db.WithContext(ctx).Create(settings).Error
}

// Update updates the settings row
func (r *receiptSettingsRepository) Update(ctx context.Context, settings *entity.ReceiptSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
