package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderPrinter prints a persisted order.
type OrderPrinter interface {
	PrintOrder(ctx context.Context, order *entity.Order, opts PrintOptions) (*PrintResult, error)
}

// CheckoutObserver receives checkout metrics.
type CheckoutObserver interface {
	ObserveCheckout(result string)
}

const maxNumberAttempts = 5

// OrderService handles order-related operations
type OrderService struct {
	orderRepo repository.OrderRepository
	printer   OrderPrinter
	metrics   CheckoutObserver
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

// NewOrderService creates a new order service. Order numbers are dated in loc.
func NewOrderService(orderRepo repository.OrderRepository, printer OrderPrinter, metrics CheckoutObserver, loc *time.Location, log *zap.Logger) *OrderService {
	if loc == nil {
		loc, _ = LoadReceiptLocation("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		printer:   printer,
		metrics:   metrics,
		loc:       loc,
		now:       time.Now,
		log:       log.Named("orders"),
	}
}

// OrderItemInput represents an item in an order
type OrderItemInput struct {
	ItemID    uuid.UUID
	Name      string
	ShortName string
	Price     decimal.Decimal
	Quantity  int
	Category  string
}

// CheckoutInput represents the checkout input
type CheckoutInput struct {
	UserID      uuid.UUID
	PhoneNumber string
	Items       []OrderItemInput
	Print       PrintOptions
	// SkipPrint saves the order without printing it.
	SkipPrint bool
}

// CheckoutResult tells the POS what happened and whether the current order
// can be cleared.
type CheckoutResult struct {
	Order             *entity.Order `json:"order"`
	Print             *PrintResult  `json:"print,omitempty"`
	PrintError        string        `json:"print_error,omitempty"`
	ClearCurrentOrder bool          `json:"clear_current_order"`
}

// Checkout saves the order and then prints it. A save failure returns an
// ErrOrderCreationFailed error. Once the order is saved, printing problems
// are reported in the result and never fail the checkout.
func (s *OrderService) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	items, err := validateItems(input.Items)
	if err != nil {
		s.observe("invalid")
		return nil, err
	}

	now := s.now().In(s.loc)
	count, err := s.orderRepo.CountForDay(ctx, now)
	if err != nil {
		s.observe("failed")
		return nil, apperror.NewOrderCreationError(fmt.Errorf("count orders: %w", err))
	}

	order := &entity.Order{
		Items:       items,
		Status:      enum.OrderStatusPending,
		CreatedBy:   input.UserID,
		CreatedAt:   now,
	}
	order.Total = order.ItemsTotal()
	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		order.PhoneNumber = &phone
	}

	// Two tills can read the same count; take the next free number when
	// the unique index rejects ours.
	seq := count + 1
	for attempt := 1; ; attempt++ {
		order.OrderNumber = fmt.Sprintf("%s-%04d", now.Format("20060102"), seq)
		err = s.orderRepo.Create(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) || attempt == maxNumberAttempts {
			break
		}
		s.log.Warn("order number taken, retrying", zap.String("order_number", order.OrderNumber))
		seq++
	}
	if err != nil {
		s.observe("failed")
		s.log.Error("order creation failed", zap.Error(err))
		return nil, apperror.NewOrderCreationError(err)
	}
	s.observe("created")

	result := &CheckoutResult{Order: order, ClearCurrentOrder: true}
	if input.SkipPrint || s.printer == nil {
		return result, nil
	}

	opts := input.Print
	if opts.RequestedBy == nil && input.UserID != uuid.Nil {
		uid := input.UserID
		opts.RequestedBy = &uid
	}
	if opts.Source == "" {
		opts.Source = "checkout"
	}
	printed, err := s.printer.PrintOrder(ctx, order, opts)
	if err != nil {
		s.log.Warn("checkout print failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		result.PrintError = err.Error()
		return result, nil
	}
	result.Print = printed
	return result, nil
}

func validateItems(in []OrderItemInput) ([]entity.OrderLineItem, error) {
	if len(in) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "items", Message: "at least one item is required"}})
	}
	var fieldErrors []apperror.FieldError
	items := make([]entity.OrderLineItem, 0, len(in))
	for i, it := range in {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: fmt.Sprintf("items[%d].name", i), Message: "is required"})
		}
		if it.Quantity < 1 {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be at least 1"})
		}
		if it.Price.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: fmt.Sprintf("items[%d].price", i), Message: "must not be negative"})
		}
		items = append(items, entity.OrderLineItem{
			ItemID:    it.ItemID,
			Name:      name,
			ShortName: strings.TrimSpace(it.ShortName),
			Price:     it.Price.Round(2),
			Quantity:  it.Quantity,
			Category:  strings.TrimSpace(it.Category),
		})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return items, nil
}

func (s *OrderService) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(result)
	}
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// UpdateStatus moves an order through the kitchen workflow
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*entity.Order, error) {
	st, err := enum.ParseOrderStatus(status)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	order.Status = st
	return order, nil
}
