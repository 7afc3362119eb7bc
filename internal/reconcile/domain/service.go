// Package domain defines the reconciliation contract: converging the cart's
// persisted price adjustments, free items and coupon state onto the effect
// list of one engine evaluation.
package domain

import (
	"context"

	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
)

// Outcome reports what one reconciliation pass converged to. Callers use it
// to resolve shopper-facing messages for rejections.
type Outcome struct {
	Classified *effectdomain.ClassifiedEffects

	// True when at least one granted free item could not be added because
	// the product is unknown or not orderable.
	FreeItemUnavailable bool
}

// Reconciler applies one evaluation's effects to the cart. The pass is
// idempotent: running it twice against the same effect list leaves the cart
// unchanged the second time.
type Reconciler interface {
	Reconcile(ctx context.Context, cart *cartdomain.Cart, effects []effectdomain.Effect, snapshot *enginedomain.Snapshot) (*Outcome, error)
}
