package domain

import (
	"context"
	"errors"
)

// CreateRequest carries the fields for a new catalog entry.
type CreateRequest struct {
	SKU       string
	MasterSKU string
	Name      string
	UnitPrice int64
	Currency  string
	Orderable *bool
}

// Service resolves products by SKU. Lookup returns (nil, nil) when the SKU
// is unknown; callers treat that as a recoverable condition.
type Service interface {
	Lookup(ctx context.Context, sku string) (*Product, error)
	Create(ctx context.Context, req CreateRequest) (*Product, error)
}

var (
	ErrInvalidSKU   = errors.New("invalid_sku")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrSKUExists    = errors.New("sku_exists")
)
