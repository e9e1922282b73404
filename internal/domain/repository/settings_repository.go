package repository

import (
	"context"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
)

// ReceiptSettingsRepository defines the interface for the receipt settings row
type ReceiptSettingsRepository interface {
	// Get returns the deployment's settings, or nil when none were saved yet.
	Get(ctx context.Context) (*entity.ReceiptSettings, error)
	Create(ctx context.Context, settings *entity.ReceiptSettings) error
	Update(ctx context.Context, settings *entity.ReceiptSettings) error
}
