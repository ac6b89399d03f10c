package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// LineDTO is one cart or order line priced at the current catalog price.
type LineDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	ShopID    uuid.UUID       `json:"shop_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	Status            enums.OrderStatus `json:"status"`
	StatusLabel       string            `json:"status_label"`
	CreatedAt         time.Time         `json:"created_at"`
	ConfirmedAt       *time.Time        `json:"confirmed_at,omitempty"`
	DeliveryAddressID *uuid.UUID        `json:"delivery_address_id,omitempty"`
	Items             []LineDTO         `json:"items"`
	Total             decimal.Decimal   `json:"total"`
}

// HistoryEntry is the summary row of the order history.
type HistoryEntry struct {
	ID          uuid.UUID         `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	Total       decimal.Decimal   `json:"total"`
	Status      enums.OrderStatus `json:"status"`
	StatusLabel string            `json:"status_label"`
}

// ConfirmationDTO acknowledges a confirmed order.
type ConfirmationDTO struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	Status      enums.OrderStatus         `json:"status"`
	StatusLabel string                    `json:"status_label"`
	ConfirmedAt time.Time                 `json:"confirmed_at"`
	Total       decimal.Decimal           `json:"total"`
	Channel     enums.NotificationChannel `json:"notified_via"`
}

func ToLineDTO(item models.OrderItem) LineDTO {
	dto := LineDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		ShopID:    item.ShopID,
		Quantity:  item.Quantity,
		Subtotal:  LineSubtotal(item),
	}
	if item.Product != nil {
		dto.Name = item.Product.Name
		dto.UnitPrice = item.Product.Price
	}
	return dto
}

func ToOrderDTO(order models.Order) OrderDTO {
	items := make([]LineDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ToLineDTO(item))
	}
	return OrderDTO{
		ID:                order.ID,
		Status:            order.Status,
		StatusLabel:       order.Status.Label(),
		CreatedAt:         order.CreatedAt,
		ConfirmedAt:       order.ConfirmedAt,
		DeliveryAddressID: order.DeliveryAddressID,
		Items:             items,
		Total:             Total(order.Items),
	}
}

func toHistoryEntry(order models.Order) HistoryEntry {
	return HistoryEntry{
		ID:          order.ID,
		CreatedAt:   order.CreatedAt,
		Total:       Total(order.Items),
		Status:      order.Status,
		StatusLabel: order.Status.Label(),
	}
}
