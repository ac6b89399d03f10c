package kafka

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/orders-backend/pkg/config"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// NewWriter builds a synchronous writer that waits for all in-sync replicas,
// keyed by message key so one order always lands on one partition.
func NewWriter(cfg config.KafkaConfig, timeout time.Duration) (*kafka.Writer, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, ErrDisabled
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: false,
	}, nil
}
