package notifications

import (
	"context"

	"github.com/angelmondragon/orders-backend/pkg/logger"
)

// LogNotifier writes notifications to the structured log. Used in dev.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogNotifier{logg: logg}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	logCtx := l.logg.WithFields(ctx, map[string]any{
		"order_id":    n.OrderID.String(),
		"channel":     n.Channel,
		"destination": n.Destination,
		"subject":     n.Subject,
	})
	l.logg.Info(logCtx, n.Body)
	return nil
}
