package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a seller whose products appear in the catalog.
type Shop struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_shops_name"`
	Site      *string   `gorm:"column:site"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type Category struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex:idx_categories_name"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// ProductModel groups products of several shops under one catalog model.
type ProductModel struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
}

func (ProductModel) TableName() string { return "product_models" }

func (m *ProductModel) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type Parameter struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex:idx_parameters_name"`
}

func (p *Parameter) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductParameter is one named characteristic value of a product.
type ProductParameter struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_parameters_pair"`
	ParameterID uuid.UUID  `gorm:"column:parameter_id;type:uuid;not null;uniqueIndex:idx_product_parameters_pair"`
	Parameter   *Parameter `gorm:"foreignKey:ParameterID"`
	Value       string     `gorm:"column:value;not null"`
}

func (p *ProductParameter) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
