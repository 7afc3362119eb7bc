package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service exposes the cart collaborator operations the reconciliation pass
// and the HTTP surface consume. Methods taking tx participate in the caller's
// transaction.
type Service interface {
	Create(ctx context.Context, currency string) (*Cart, error)
	Get(ctx context.Context, id snowflake.ID) (*Cart, error)

	AddLineItem(ctx context.Context, tx *gorm.DB, cart *Cart, sku string, qty int64) (*LineItem, error)
	RemoveLineItem(ctx context.Context, tx *gorm.DB, cart *Cart, lineItemID snowflake.ID) error
	UpdateLineItemQuantity(ctx context.Context, tx *gorm.DB, cart *Cart, lineItemID snowflake.ID, qty int64) error

	RecalculateTotals(ctx context.Context, tx *gorm.DB, cart *Cart) error
	ApplyShippingCost(ctx context.Context, tx *gorm.DB, cart *Cart) error
}

var (
	ErrCartNotFound       = errors.New("cart_not_found")
	ErrCartClosed         = errors.New("cart_closed")
	ErrLineItemNotFound   = errors.New("line_item_not_found")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrProductNotOrderable = errors.New("product_not_orderable")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidCurrency    = errors.New("invalid_currency")
)
