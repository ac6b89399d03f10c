package notifications

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orders-backend/pkg/config"
	pkgkafka "github.com/angelmondragon/orders-backend/pkg/kafka"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/pubsub"
	"github.com/angelmondragon/orders-backend/pkg/rabbitmq"
)

// Transports are the optional broker clients the process already opened.
type Transports struct {
	PubSub *pubsub.Client
}

// Build selects the driver named by cfg.Notifier.Driver. The returned closer
// releases any connection the driver opened itself.
func Build(ctx context.Context, cfg *config.Config, transports Transports, logg *logger.Logger) (Notifier, io.Closer, error) {
	switch strings.ToLower(cfg.Notifier.Driver) {
	case config.NotifierDriverLog:
		return NewLogNotifier(logg), nopCloser{}, nil
	case config.NotifierDriverPubSub:
		if transports.PubSub == nil {
			return nil, nil, fmt.Errorf("pubsub client required for the pubsub notifier")
		}
		n, err := NewPubSubNotifier(transports.PubSub.NotificationPublisher())
		return n, nopCloser{}, err
	case config.NotifierDriverRabbitMQ:
		conn, err := rabbitmq.Dial(ctx, cfg.RabbitMQ, logg)
		if err != nil {
			return nil, nil, err
		}
		n, err := NewRabbitMQNotifier(conn.Channel(), conn.Exchange(), cfg.RabbitMQ.RoutingKey)
		if err != nil {
			return nil, nil, multierr.Append(err, conn.Close())
		}
		return n, conn, nil
	case config.NotifierDriverKafka:
		writer, err := pkgkafka.NewWriter(cfg.Kafka, cfg.Notifier.Timeout)
		if err != nil {
			return nil, nil, err
		}
		n, err := NewKafkaNotifier(writer)
		if err != nil {
			return nil, nil, multierr.Append(err, writer.Close())
		}
		return n, writerCloser{writer}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notifier driver %q", cfg.Notifier.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type writerCloser struct{ w *kafka.Writer }

func (c writerCloser) Close() error { return c.w.Close() }
