// Package domain contains persistence models for the product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a purchasable catalog entry. Free-item grants reference
// products by SKU, so SKU carries the unique index.
type Product struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	SKU        string            `gorm:"type:text;not null;uniqueIndex"`
	MasterSKU  string            `gorm:"type:text"`
	Name       string            `gorm:"type:text;not null"`
	UnitPrice  int64             `gorm:"column:unit_price_cents;not null"`
	Currency   string            `gorm:"type:text;not null"`
	IsVariant  bool              `gorm:"not null;default:false"`
	Orderable  bool              `gorm:"not null;default:true"`
	Categories datatypes.JSON    `gorm:"type:jsonb"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// IsOrderable reports whether the product can currently be added to a cart.
func (p *Product) IsOrderable() bool {
	return p != nil && p.Orderable
}
