package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed is returned when the broker nacks a publish.
var ErrNotConfirmed = errors.New("broker did not confirm notification")

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type amqpPublisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
}

type channelPublisher struct {
	ch *amqp.Channel
}

func (c channelPublisher) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// RabbitMQNotifier publishes persistent messages routed by channel
// ("<prefix>.email", "<prefix>.sms") and waits for the publisher confirm.
type RabbitMQNotifier struct {
	publisher amqpPublisher
	exchange  string
	prefix    string
}

func NewRabbitMQNotifier(ch *amqp.Channel, exchange, routingPrefix string) (*RabbitMQNotifier, error) {
	if ch == nil {
		return nil, fmt.Errorf("rabbitmq channel required")
	}
	return newRabbitMQNotifier(channelPublisher{ch: ch}, exchange, routingPrefix), nil
}

func newRabbitMQNotifier(p amqpPublisher, exchange, routingPrefix string) *RabbitMQNotifier {
	return &RabbitMQNotifier{publisher: p, exchange: exchange, prefix: routingPrefix}
}

func (r *RabbitMQNotifier) Notify(ctx context.Context, n Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	body, err := n.encode()
	if err != nil {
		return err
	}
	key := n.Channel.String()
	if r.prefix != "" {
		key = r.prefix + "." + key
	}
	confirm, err := r.publisher.Publish(ctx, r.exchange, key, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.OrderID.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await publisher confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}
