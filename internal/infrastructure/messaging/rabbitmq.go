package messaging

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sangkips/kitchen-pos/internal/config"
)

// RabbitMQ holds the connection used by the kitchen print queue.
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	cfg     config.QueueConfig
}

// NewRabbitMQ dials the broker and opens a channel.
func NewRabbitMQ(cfg config.QueueConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &RabbitMQ{Conn: conn, Channel: ch, cfg: cfg}, nil
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.cfg.DeadLetterQueue + ".exchange"
}

// SetupQueues declares the print exchange, the receipt queue and its dead
// letter queue. Rejected messages land in the dead letter queue.
func (r *RabbitMQ) SetupQueues() error {
	dlx := r.deadLetterExchange()
	if err := r.Channel.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead letter exchange: %w", err)
	}
	if _, err := r.Channel.QueueDeclare(r.cfg.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead letter queue: %w", err)
	}
	if err := r.Channel.QueueBind(r.cfg.DeadLetterQueue, r.cfg.DeadLetterQueue, dlx, false, nil); err != nil {
		return fmt.Errorf("bind dead letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(r.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare print exchange: %w", err)
	}
	_, err := r.Channel.QueueDeclare(r.cfg.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": r.cfg.DeadLetterQueue,
	})
	if err != nil {
		return fmt.Errorf("declare print queue: %w", err)
	}
	if err := r.Channel.QueueBind(r.cfg.Queue, r.cfg.RoutingKey, r.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind print queue: %w", err)
	}

	prefetch := r.cfg.Prefetch
	if prefetch < 1 {
		prefetch = 1
	}
	return r.Channel.Qos(prefetch, 0, false)
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	var firstErr error
	if r.Channel != nil {
		firstErr = r.Channel.Close()
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
