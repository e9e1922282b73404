package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
)

// ErrDuplicateOrderNumber is returned by Create when another order already
// holds the same order number.
var ErrDuplicateOrderNumber = errors.New("order number already taken")

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// Create stores the order together with its items. It returns an error
	// wrapping ErrDuplicateOrderNumber when the number is already taken.
	Create(ctx context.Context, order *entity.Order) error
	// GetByID returns the order with items in their original order, or nil
	// when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error
	// CountForDay counts orders created on the calendar day of day, in day's location.
	CountForDay(ctx context.Context, day time.Time) (int64, error)
}
