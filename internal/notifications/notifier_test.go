package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orders-backend/pkg/enums"
)

func sample() Notification {
	return OrderConfirmed(uuid.New(), enums.ChannelEmail, "buyer@example.com", "orders@example.com", decimal.RequireFromString("25.5"))
}

func TestOrderConfirmedMessage(t *testing.T) {
	id := uuid.New()
	email := OrderConfirmed(id, enums.ChannelEmail, "buyer@example.com", "orders@example.com", decimal.RequireFromString("25.5"))
	assert.Equal(t, "Order Confirmation", email.Subject)
	assert.Equal(t, "orders@example.com", email.From)
	assert.Contains(t, email.Body, id.String())
	assert.Contains(t, email.Body, "25.50")

	sms := OrderConfirmed(id, enums.ChannelSMS, "+14155550100", "orders@example.com", decimal.Zero)
	assert.Empty(t, sms.Subject)
	assert.Empty(t, sms.From)
	assert.Contains(t, sms.Body, "confirmed")
}

func TestNotificationValidate(t *testing.T) {
	require.NoError(t, sample().validate())

	n := sample()
	n.Destination = ""
	require.Error(t, n.validate())

	n = sample()
	n.Channel = "pigeon"
	require.Error(t, n.validate())

	n = sample()
	n.OrderID = uuid.Nil
	require.Error(t, n.validate())
}

func TestLogNotifier(t *testing.T) {
	require.NoError(t, NewLogNotifier(nil).Notify(context.Background(), sample()))
	require.Error(t, NewLogNotifier(nil).Notify(context.Background(), Notification{}))
}

type fakeResult struct {
	id  string
	err error
}

func (f fakeResult) Get(context.Context) (string, error) { return f.id, f.err }

type fakeTopic struct {
	msgs []*pubsub.Message
	err  error
}

func (f *fakeTopic) Publish(_ context.Context, msg *pubsub.Message) publishResult {
	f.msgs = append(f.msgs, msg)
	return fakeResult{id: "server-1", err: f.err}
}

func TestPubSubNotifierWaitsForAck(t *testing.T) {
	topic := &fakeTopic{}
	n := &PubSubNotifier{publisher: topic}
	msg := sample()

	require.NoError(t, n.Notify(context.Background(), msg))
	require.Len(t, topic.msgs, 1)
	assert.Equal(t, msg.OrderID.String(), topic.msgs[0].Attributes["order_id"])
	assert.Equal(t, "email", topic.msgs[0].Attributes["channel"])

	var decoded Notification
	require.NoError(t, json.Unmarshal(topic.msgs[0].Data, &decoded))
	assert.Equal(t, msg, decoded)

	topic.err = errors.New("deadline exceeded")
	require.ErrorContains(t, n.Notify(context.Background(), msg), "deadline exceeded")
}

type fakeConfirm struct {
	ack bool
	err error
}

func (f fakeConfirm) WaitContext(context.Context) (bool, error) { return f.ack, f.err }

type fakeChannel struct {
	keys    []string
	msgs    []amqp.Publishing
	confirm fakeConfirm
	err     error
}

func (f *fakeChannel) Publish(_ context.Context, _ string, key string, msg amqp.Publishing) (confirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	return f.confirm, nil
}

func TestRabbitMQNotifierRoutesByChannel(t *testing.T) {
	ch := &fakeChannel{confirm: fakeConfirm{ack: true}}
	n := newRabbitMQNotifier(ch, "orders.notifications", "notify")

	require.NoError(t, n.Notify(context.Background(), sample()))
	sms := sample()
	sms.Channel = enums.ChannelSMS
	require.NoError(t, n.Notify(context.Background(), sms))

	assert.Equal(t, []string{"notify.email", "notify.sms"}, ch.keys)
	assert.Equal(t, uint8(amqp.Persistent), ch.msgs[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
}

func TestRabbitMQNotifierSurfacesNack(t *testing.T) {
	n := newRabbitMQNotifier(&fakeChannel{confirm: fakeConfirm{ack: false}}, "x", "")
	require.ErrorIs(t, n.Notify(context.Background(), sample()), ErrNotConfirmed)

	n = newRabbitMQNotifier(&fakeChannel{err: amqp.ErrClosed}, "x", "")
	require.ErrorIs(t, n.Notify(context.Background(), sample()), amqp.ErrClosed)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaNotifierKeysByOrder(t *testing.T) {
	w := &fakeWriter{}
	n, err := NewKafkaNotifier(w)
	require.NoError(t, err)

	msg := sample()
	require.NoError(t, n.Notify(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, msg.OrderID.String(), string(w.msgs[0].Key))
	assert.Equal(t, "channel", w.msgs[0].Headers[0].Key)

	w.err = kafka.LeaderNotAvailable
	require.ErrorIs(t, n.Notify(context.Background(), msg), kafka.LeaderNotAvailable)
}
