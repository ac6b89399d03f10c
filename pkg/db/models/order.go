package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// Order is a user's cart while in status created, and a purchase afterwards.
// idx_orders_active_cart keeps at most one created order per user.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_orders_active_cart,where:status = 'created'"`
	Status            enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'created'"`
	DeliveryAddressID *uuid.UUID        `gorm:"column:delivery_address_id;type:uuid"`
	DeliveryAddress   *DeliveryAddress  `gorm:"foreignKey:DeliveryAddressID;constraint:OnDelete:SET NULL"`
	ConfirmedAt       *time.Time        `gorm:"column:confirmed_at"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}
