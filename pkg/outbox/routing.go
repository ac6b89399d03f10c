package outbox

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// NonRetryableError marks a row that no amount of retrying will publish.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable outbox error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) error {
	return NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err, or anything it wraps, is a NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

// Route is where a stored event goes and the envelope it carries.
type Route struct {
	Topic    string
	Envelope PayloadEnvelope
}

// Router maps event types onto pubsub topics.
type Router struct {
	topics map[enums.OutboxEventType]string
}

func NewRouter(cfg config.PubSubConfig) (*Router, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	return &Router{topics: map[enums.OutboxEventType]string{
		enums.EventOrderConfirmed: cfg.OrdersTopic,
	}}, nil
}

// Resolve decodes the row's envelope and picks its topic. Unknown types and
// undecodable payloads are non-retryable.
func (r *Router) Resolve(event models.OutboxEvent) (*Route, error) {
	topic, ok := r.topics[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("no topic for event type %q", event.EventType))
	}
	envelope, err := DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if envelope.EventID == "" {
		return nil, NewNonRetryableError(errors.New("envelope missing event id"))
	}
	return &Route{Topic: topic, Envelope: envelope}, nil
}
