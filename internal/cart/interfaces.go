package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
)

// LineRepository persists cart lines keyed by (order, product, shop).
type LineRepository interface {
	WithTx(tx *gorm.DB) LineRepository
	FindForUpdate(ctx context.Context, orderID, productID, shopID uuid.UUID) (*models.OrderItem, error)
	LockInOrder(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderItem, error)
	Create(ctx context.Context, item *models.OrderItem) error
	UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, lineID uuid.UUID) error
}
