package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// Notifier hands a message to a delivery pipeline. A nil error means the
// pipeline durably accepted it, not that the recipient read it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is one message for one destination.
type Notification struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	Channel     enums.NotificationChannel `json:"channel"`
	Destination string                    `json:"destination"`
	From        string                    `json:"from,omitempty"`
	Subject     string                    `json:"subject,omitempty"`
	Body        string                    `json:"body"`
}

func (n Notification) validate() error {
	if n.OrderID == uuid.Nil {
		return fmt.Errorf("notification order id is required")
	}
	if n.Destination == "" {
		return fmt.Errorf("notification destination is required")
	}
	if n.Channel != enums.ChannelEmail && n.Channel != enums.ChannelSMS {
		return fmt.Errorf("unsupported notification channel %q", n.Channel)
	}
	return nil
}

func (n Notification) encode() ([]byte, error) {
	return json.Marshal(n)
}

// OrderConfirmed builds the confirmation message. SMS messages carry no subject.
func OrderConfirmed(orderID uuid.UUID, channel enums.NotificationChannel, destination, from string, total decimal.Decimal) Notification {
	n := Notification{
		OrderID:     orderID,
		Channel:     channel,
		Destination: destination,
	}
	switch channel {
	case enums.ChannelEmail:
		n.From = from
		n.Subject = "Order Confirmation"
		n.Body = fmt.Sprintf("Order %s has been confirmed. Total: %s.", orderID, total.StringFixed(2))
	default:
		n.Body = fmt.Sprintf("Order %s confirmed. Total: %s.", orderID, total.StringFixed(2))
	}
	return n
}
