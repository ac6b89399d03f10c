package notifications

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type gcpPublisher struct {
	publisher *pubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return g.publisher.Publish(ctx, msg)
}

// PubSubNotifier publishes to the notification topic and waits for the server ack.
type PubSubNotifier struct {
	publisher topicPublisher
}

func NewPubSubNotifier(publisher *pubsub.Publisher) (*PubSubNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubNotifier{publisher: gcpPublisher{publisher: publisher}}, nil
}

func (p *PubSubNotifier) Notify(ctx context.Context, n Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	data, err := n.encode()
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"order_id": n.OrderID.String(),
			"channel":  n.Channel.String(),
		},
	}
	if _, err := p.publisher.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
