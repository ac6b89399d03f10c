package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DeliveryAddress, error) {
	var rows []models.DeliveryAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.DeliveryAddress, error) {
	var addr models.DeliveryAddress
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) Create(ctx context.Context, addr *models.DeliveryAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *Repository) Update(ctx context.Context, addr *models.DeliveryAddress) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

// DetachFromActiveCart clears the address from the user's created order, if set.
func (r *Repository) DetachFromActiveCart(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND status = ? AND delivery_address_id = ?", userID, enums.OrderStatusCreated, id).
		Update("delivery_address_id", nil).Error
}

func (r *Repository) DeleteOwned(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.DeliveryAddress{})
	return res.RowsAffected > 0, res.Error
}
