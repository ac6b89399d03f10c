package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/logger"
)

const (
	ExchangeType = "topic"

	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

// Conn owns one connection and a confirm-mode channel bound to the notification exchange.
type Conn struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Dial connects with a short retry loop, declares the durable topic exchange
// and puts the channel in publisher-confirm mode.
func Dial(ctx context.Context, cfg config.RabbitMQConfig, logg *logger.Logger) (*Conn, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "attempt", attempt), "rabbitmq dial failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("could not open channel: %w", err), conn.Close())
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		return nil, multierr.Combine(fmt.Errorf("could not declare exchange: %w", err), ch.Close(), conn.Close())
	}

	if err := ch.Confirm(false); err != nil {
		return nil, multierr.Combine(fmt.Errorf("could not enable publisher confirms: %w", err), ch.Close(), conn.Close())
	}

	if logg != nil {
		logg.Info(ctx, "rabbitmq connection established")
	}
	return &Conn{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

func (c *Conn) Channel() *amqp.Channel {
	return c.ch
}

func (c *Conn) Exchange() string {
	return c.exchange
}

// Close closes the channel and then the connection.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	var err error
	if c.ch != nil {
		err = multierr.Append(err, c.ch.Close())
	}
	if c.conn != nil {
		err = multierr.Append(err, c.conn.Close())
	}
	return err
}
