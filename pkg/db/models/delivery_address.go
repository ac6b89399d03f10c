package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryAddress struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	City      string    `gorm:"column:city;not null"`
	Street    string    `gorm:"column:street;not null"`
	Building  string    `gorm:"column:building;not null"`
	Block     *string   `gorm:"column:block"`
	Structure *string   `gorm:"column:structure"`
	Apartment *int      `gorm:"column:apartment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeliveryAddress) TableName() string { return "delivery_addresses" }

func (a *DeliveryAddress) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
