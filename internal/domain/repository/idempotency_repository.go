package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses.
type IdempotencyRepository interface {
	// GetByKey returns the stored response for the user's key, or nil.
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
