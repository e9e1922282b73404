package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sangkips/kitchen-pos/internal/application/service"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
	"go.uber.org/zap"
)

// PrintRequest is the body of a kitchen print message.
type PrintRequest struct {
	OrderID    uuid.UUID `json:"order_id"`
	ByCategory *bool     `json:"by_category,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
}

// ErrMalformedMessage marks a message that can never be processed.
var ErrMalformedMessage = errors.New("malformed print message")

// ParsePrintRequest decodes and validates a message body.
func ParsePrintRequest(body []byte) (PrintRequest, service.Strategy, error) {
	var req PrintRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if req.OrderID == uuid.Nil {
		return req, "", fmt.Errorf("%w: order_id is required", ErrMalformedMessage)
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		return req, "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return req, strategy, nil
}

// OrderPrinter prints an order by ID.
type OrderPrinter interface {
	PrintOrderByID(ctx context.Context, id uuid.UUID, opts service.PrintOptions) (*service.PrintResult, error)
}

// QueueObserver receives consumer metrics.
type QueueObserver interface {
	ObserveQueueMessage(result string)
}

// PrintConsumer prints orders named by queue messages. Print failures are
// acknowledged once audited; the orchestrator never retries and a requeue
// would print the successful categories twice.
type PrintConsumer struct {
	printer OrderPrinter
	metrics QueueObserver
	log     *zap.Logger
	timeout time.Duration
}

// NewPrintConsumer creates a consumer. timeout bounds one message.
func NewPrintConsumer(printer OrderPrinter, metrics QueueObserver, timeout time.Duration, log *zap.Logger) *PrintConsumer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &PrintConsumer{
		printer: printer,
		metrics: metrics,
		log:     log.Named("print-consumer"),
		timeout: timeout,
	}
}

// Run consumes queue until ctx is done or the channel closes.
func (c *PrintConsumer) Run(ctx context.Context, ch *amqp.Channel, queue string) error {
	msgs, err := ch.Consume(queue, "kitchen-pos-printer", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	c.log.Info("consuming print requests", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("print queue channel closed")
			}
			c.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery and settles it.
func (c *PrintConsumer) Handle(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling print message", zap.Any("panic", r))
			c.settle(msg, "panic", msg.Nack(false, false))
		}
	}()

	req, strategy, err := ParsePrintRequest(msg.Body)
	if err != nil {
		c.log.Warn("rejecting print message", zap.ByteString("body", msg.Body), zap.Error(err))
		c.settle(msg, "malformed", msg.Nack(false, false))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := c.printer.PrintOrderByID(ctx, req.OrderID, service.PrintOptions{
		Strategy:   strategy,
		ByCategory: req.ByCategory,
		Source:     "queue",
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			c.log.Warn("rejecting print message", zap.String("order_id", req.OrderID.String()), zap.Error(err))
			c.settle(msg, "rejected", msg.Nack(false, false))
			return
		}
		c.log.Error("print message failed, requeueing", zap.String("order_id", req.OrderID.String()), zap.Error(err))
		c.settle(msg, "requeued", msg.Nack(false, true))
		return
	}

	c.log.Info("print message handled",
		zap.String("order_id", req.OrderID.String()),
		zap.String("state", string(result.State)))
	c.settle(msg, string(result.State), msg.Ack(false))
}

func (c *PrintConsumer) settle(msg amqp.Delivery, result string, err error) {
	if err != nil {
		c.log.Error("failed to settle print message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
	}
	if c.metrics != nil {
		c.metrics.ObserveQueueMessage(result)
	}
}
