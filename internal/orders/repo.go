package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// ActiveCartIndex is the partial unique index on orders(user_id) WHERE status = 'created'.
const ActiveCartIndex = "idx_orders_active_cart"

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindActive loads the active cart with its lines and their products, without locking.
func (r *repository) FindActive(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Preload("Items.Product").
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusCreated).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrCreateActive inserts a created order unless one exists, then returns the
// surviving row locked. Concurrent callers converge on the same order.
func (r *repository) GetOrCreateActive(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	candidate := models.Order{UserID: userID, Status: enums.OrderStatusCreated}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&candidate).Error
	if err != nil && !db.IsUniqueViolation(err, ActiveCartIndex) {
		return nil, err
	}
	return r.LockActive(ctx, userID)
}

func (r *repository) LockActive(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusCreated).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockOwnedCreated(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ? AND status = ?", orderID, userID, enums.OrderStatusCreated).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOwned loads an order of any status with its lines.
func (r *repository) FindOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Preload("Items.Product").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListHistory returns every order past the cart stage, newest first.
func (r *repository) ListHistory(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("user_id = ? AND status <> ?", userID, enums.OrderStatusCreated).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	err := orderItems(r.db.WithContext(ctx)).
		Preload("Product").
		Where("order_id = ?", orderID).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetDeliveryAddress(ctx context.Context, orderID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("delivery_address_id", addressID).Error
}

// MarkConfirmed flips created to confirmed. It reports false when the order is
// no longer in created.
func (r *repository) MarkConfirmed(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusCreated).
		Updates(map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
