package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository loads and persists the cart aggregate. FindByID preloads every
// association a reconciliation pass reads.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Cart, error)
	Create(ctx context.Context, db *gorm.DB, cart *Cart) error
}
