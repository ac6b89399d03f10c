package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
	"github.com/angelmondragon/orders-backend/pkg/outbox"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type routeResolver interface {
	Resolve(models.OutboxEvent) (*outbox.Route, error)
}

// outcome is what the relay does with a row after one publish attempt.
type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomePark
)

type RelayOptions struct {
	Outbox     config.OutboxConfig
	Logger     *logger.Logger
	DB         txRunner
	PubSub     pubSubClient
	Repository outboxRepository
	Router     routeResolver
	Metrics    *metrics.OutboxMetrics

	// PublisherFactory overrides the pubsub-backed publishers.
	PublisherFactory publisherFactory
}

// Relay drains outbox_events onto pubsub. Rows are locked with SKIP LOCKED,
// so several relays can run side by side.
type Relay struct {
	logg         *logger.Logger
	db           txRunner
	pubsub       pubSubClient
	repo         outboxRepository
	router       routeResolver
	publisherFor publisherFactory
	metrics      *metrics.OutboxMetrics

	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(opts RelayOptions) (*Relay, error) {
	switch {
	case opts.Logger == nil:
		return nil, errors.New("logger is required")
	case opts.DB == nil:
		return nil, errors.New("database client is required")
	case opts.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case opts.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case opts.Router == nil:
		return nil, errors.New("event router is required")
	}

	r := &Relay{
		logg:         opts.Logger,
		db:           opts.DB,
		pubsub:       opts.PubSub,
		repo:         opts.Repository,
		router:       opts.Router,
		publisherFor: opts.PublisherFactory,
		metrics:      opts.Metrics,
		batchSize:    opts.Outbox.BatchSize,
		maxAttempts:  opts.Outbox.MaxAttempts,
		poll:         time.Duration(opts.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.publisherFor == nil {
		r.publisherFor = gcpPublishers(opts.PubSub)
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPoll
	}
	return r, nil
}

// Run polls until ctx is done. An empty batch sleeps one poll interval;
// a failed batch backs off exponentially up to maxBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	wait := r.poll
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		drained, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox relay batch failed", err)
			wait = nextBackoff(wait, r.poll, maxBackoff)
		case drained:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}

		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// drain handles one batch inside a single transaction. It reports whether
// any row was claimed.
func (r *Relay) drain(ctx context.Context) (bool, error) {
	claimed := false
	started := time.Now()

	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events) > 0

		for _, event := range events {
			result, fields, cause := r.dispatch(ctx, event)
			if err := r.settle(ctx, tx, event, result, fields, cause); err != nil {
				return err
			}
		}
		return nil
	})

	if claimed {
		r.metrics.ObserveBatch(time.Since(started))
	}
	return claimed, err
}

func (r *Relay) dispatch(ctx context.Context, event models.OutboxEvent) (outcome, map[string]any, error) {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}

	route, err := r.router.Resolve(event)
	if err != nil {
		fields["park_reason"] = "unroutable"
		return outcomePark, fields, err
	}
	fields["topic"] = route.Topic
	fields["event_id"] = route.Envelope.EventID

	err = r.publish(ctx, event, route)
	if err == nil {
		return outcomePublished, fields, nil
	}

	r.metrics.IncFailed(string(event.EventType))
	attempts := event.AttemptCount + 1
	fields["attempt_count"] = attempts
	switch {
	case outbox.IsNonRetryable(err):
		fields["park_reason"] = "non_retryable"
		return outcomePark, fields, err
	case attempts >= r.maxAttempts:
		fields["park_reason"] = "max_attempts"
		return outcomePark, fields, fmt.Errorf("max publish attempts reached: %w", err)
	default:
		return outcomeRetry, fields, err
	}
}

// settle records the outcome on the row. Parked rows keep last_error and sit
// at the attempt ceiling, so the fetch query never picks them up again.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, result outcome, fields map[string]any, cause error) error {
	ctx = r.logg.WithFields(ctx, fields)

	switch result {
	case outcomePublished:
		if err := r.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.metrics.IncPublished(string(event.EventType))
		r.logg.Info(ctx, "outbox event published")

	case outcomeRetry:
		r.logg.Warn(r.logg.WithField(ctx, "error", cause.Error()), "outbox publish failed, will retry")
		if err := r.repo.MarkFailedTx(tx, event.ID, cause); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}

	case outcomePark:
		r.logg.Warn(r.logg.WithField(ctx, "error", cause.Error()), "outbox event parked")
		if err := r.repo.MarkTerminalTx(tx, event.ID, cause, r.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", event.ID, err)
		}
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent, route *outbox.Route) error {
	pub := r.publisherFor(route.Topic)
	if pub == nil {
		return outbox.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", route.Topic))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := pub.Publish(ctx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       route.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return outbox.NewNonRetryableError(fmt.Errorf("publisher for %s returned no result", route.Topic))
	}
	_, err := result.Get(ctx)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, ceiling time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, ceiling)
}

func withJitter(d time.Duration) time.Duration {
	return d + rand.N(jitterWindow)
}
