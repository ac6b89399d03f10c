package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
)

// LineSubtotal is quantity times the product's current price. Lines must have
// Product loaded; a missing product contributes zero.
func LineSubtotal(item models.OrderItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Total sums line subtotals. It is never stored because prices are live.
func Total(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineSubtotal(item))
	}
	return total
}
