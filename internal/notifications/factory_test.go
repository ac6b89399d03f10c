package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/logger"
)

func TestBuildDrivers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifier.Driver = config.NotifierDriverLog
	n, closer, err := Build(context.Background(), cfg, Transports{}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)
	assert.NoError(t, closer.Close())

	cfg.Notifier.Driver = config.NotifierDriverKafka
	cfg.Kafka = config.KafkaConfig{Brokers: "localhost:9092", Topic: "orders.notifications"}
	n, closer, err = Build(context.Background(), cfg, Transports{}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &KafkaNotifier{}, n)
	assert.NoError(t, closer.Close())
}

func TestBuildRejectsMissingTransport(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifier.Driver = config.NotifierDriverPubSub
	_, closer, err := Build(context.Background(), cfg, Transports{}, logger.Nop())
	assert.Error(t, err)
	assert.Nil(t, closer)

	cfg.Notifier.Driver = config.NotifierDriverKafka
	_, closer, err = Build(context.Background(), cfg, Transports{}, logger.Nop())
	assert.Error(t, err)
	assert.Nil(t, closer)

	cfg.Notifier.Driver = "carrier-pigeon"
	_, _, err = Build(context.Background(), cfg, Transports{}, logger.Nop())
	assert.ErrorContains(t, err, "carrier-pigeon")
}
