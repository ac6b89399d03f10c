package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderConfirmedEvent is emitted when a cart becomes a confirmed order.
type OrderConfirmedEvent struct {
	OrderID           uuid.UUID       `json:"order_id"`
	UserID            uuid.UUID       `json:"user_id"`
	ContactID         uuid.UUID       `json:"contact_id"`
	DeliveryAddressID uuid.UUID       `json:"delivery_address_id"`
	Total             decimal.Decimal `json:"total"`
	ItemCount         int             `json:"item_count"`
	ConfirmedAt       time.Time       `json:"confirmed_at"`
}
