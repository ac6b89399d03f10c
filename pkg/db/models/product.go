package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a shop's offer of a catalog model with live stock and price.
type Product struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name       string             `gorm:"column:name;not null;index"`
	ShopID     uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;index"`
	Shop       *Shop              `gorm:"foreignKey:ShopID"`
	ModelID    *uuid.UUID         `gorm:"column:model_id;type:uuid;index"`
	Model      *ProductModel      `gorm:"foreignKey:ModelID"`
	Stock      int                `gorm:"column:stock;not null;default:0"`
	Price      decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
