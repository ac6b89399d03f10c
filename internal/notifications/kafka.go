package notifications

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes keyed by order id; the writer waits for all in-sync replicas.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(writer messageWriter) (*KafkaNotifier, error) {
	if writer == nil {
		return nil, fmt.Errorf("kafka writer required")
	}
	return &KafkaNotifier{writer: writer}, nil
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	value, err := n.encode()
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OrderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(n.Channel.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
