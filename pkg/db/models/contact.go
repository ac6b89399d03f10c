package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/enums"
)

type Contact struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_contacts_user_value"`
	Type      enums.ContactType `gorm:"column:type;type:contact_type;not null;uniqueIndex:idx_contacts_user_value"`
	Value     string            `gorm:"column:value;not null;uniqueIndex:idx_contacts_user_value"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Contact) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
