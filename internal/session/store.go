// Package session holds the short-lived per-cart state that lives outside
// the cart aggregate: the pending loyalty balance and the read-once free
// item availability flag.
package session

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Store is keyed by cart ID. Entries expire with the configured session TTL;
// an expired entry reads the same as a never-written one.
type Store interface {
	// LoyaltyNet is the net loyalty point delta of the last evaluation.
	// ok is false when no balance is stored.
	LoyaltyNet(ctx context.Context, cartID snowflake.ID) (points float64, ok bool, err error)
	SetLoyaltyNet(ctx context.Context, cartID snowflake.ID, points float64) error
	ClearLoyaltyNet(ctx context.Context, cartID snowflake.ID) error

	// MarkFreeItemUnavailable records that a granted free item could not be
	// added to the cart. ConsumeFreeItemUnavailable reads and clears the
	// flag in one step so the notice surfaces exactly once.
	MarkFreeItemUnavailable(ctx context.Context, cartID snowflake.ID) error
	ConsumeFreeItemUnavailable(ctx context.Context, cartID snowflake.ID) (bool, error)
}
