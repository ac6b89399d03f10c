package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
)

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a line repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) LineRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindForUpdate loads and locks the line for a product within an order.
func (r *Repository) FindForUpdate(ctx context.Context, orderID, productID, shopID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("order_id = ? AND product_id = ? AND shop_id = ?", orderID, productID, shopID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockInOrder loads and locks a line only if it belongs to orderID.
func (r *Repository) LockInOrder(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND order_id = ?", lineID, orderID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new line.
func (r *Repository) Create(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateQuantity overwrites the quantity of a line.
func (r *Repository) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

// Delete removes a line.
func (r *Repository) Delete(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&models.OrderItem{}).Error
}
