package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
)

// Repository is the persistence surface for orders. An order in status created
// is the user's active cart; at most one exists per user.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	GetOrCreateActive(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	LockActive(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	LockOwnedCreated(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListHistory(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	SetDeliveryAddress(ctx context.Context, orderID, addressID uuid.UUID) error
	MarkConfirmed(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
}
