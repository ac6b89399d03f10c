package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
)

// ConfirmationScope keys the dedupe claim for one order and recipient.
const ConfirmationScope = "order-confirmation"

// claimID ties a claim to the recipient, so confirming again with another
// contact still reaches it.
func claimID(n Notification) string {
	return n.OrderID.String() + ":" + n.Channel.String() + ":" + n.Destination
}

type claimer interface {
	Claim(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

// IdempotentNotifier sends at most one notification per order and
// destination. A failed send
// releases the claim so the next confirmation attempt retries it.
type IdempotentNotifier struct {
	next    Notifier
	claims  claimer
	driver  string
	metrics *metrics.NotifierMetrics
	logg    *logger.Logger
}

func NewIdempotentNotifier(next Notifier, claims claimer, driver string, m *metrics.NotifierMetrics, logg *logger.Logger) (*IdempotentNotifier, error) {
	if next == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if claims == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &IdempotentNotifier{next: next, claims: claims, driver: driver, metrics: m, logg: logg}, nil
}

func (i *IdempotentNotifier) Notify(ctx context.Context, n Notification) error {
	id := claimID(n)
	ctx = i.logg.WithOrderID(ctx, n.OrderID.String())

	claimed, err := i.claims.Claim(ctx, ConfirmationScope, id)
	if err != nil {
		return fmt.Errorf("claim notification: %w", err)
	}
	if !claimed {
		i.metrics.IncDeduplicated()
		i.logg.Info(ctx, "order already notified, skipping")
		return nil
	}

	if err := i.next.Notify(ctx, n); err != nil {
		i.metrics.ObserveSend(i.driver, n.Channel.String(), metrics.ResultError)
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if relErr := i.claims.Release(releaseCtx, ConfirmationScope, id); relErr != nil {
			i.logg.Error(ctx, "release notification claim", relErr)
		}
		return err
	}
	i.metrics.ObserveSend(i.driver, n.Channel.String(), metrics.ResultOK)
	return nil
}
