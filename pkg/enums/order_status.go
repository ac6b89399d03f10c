package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres. An order in
// OrderStatusCreated is the user's active cart.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusInTransit  OrderStatus = "in_transit"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusConfirmed  OrderStatus = "confirmed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusDispatched,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusConfirmed,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusCreated:    "Created",
	OrderStatusPaid:       "Paid",
	OrderStatusProcessing: "Processing",
	OrderStatusDispatched: "Dispatched",
	OrderStatusInTransit:  "In Transit",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
	OrderStatusConfirmed:  "Confirmed",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// Label is the human readable status shown in order history.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether this service may move an order from s to next.
// Only the cart confirmation is driven here; other transitions belong to fulfilment.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusCreated && next == OrderStatusConfirmed
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
