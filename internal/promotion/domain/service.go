// Package domain defines the shopper-facing promotion operations: every
// mutation re-evaluates the cart against the engine and reconciles the
// result before returning.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	reconciledomain "github.com/smallbiznis/promosync/internal/reconcile/domain"
)

var (
	ErrInvalidCode          = errors.New("invalid_code")
	ErrCouponAlreadyApplied = errors.New("coupon_already_applied")
	ErrCouponNotApplied     = errors.New("coupon_not_applied")
	ErrReferralInUse        = errors.New("referral_already_applied")
	ErrReferralNotApplied   = errors.New("referral_not_applied")
	ErrEngineUnavailable    = errors.New("promotion_engine_unavailable")
)

// Result is the converged cart plus the shopper-facing notices produced by
// the evaluation: rejection messages, applied confirmations, free item
// availability.
type Result struct {
	Cart     *cartdomain.Cart
	Messages []string
	Outcome  *reconciledomain.Outcome
}

type Service interface {
	Refresh(ctx context.Context, cartID snowflake.ID) (*Result, error)

	AddItem(ctx context.Context, cartID snowflake.ID, sku string, qty int64) (*Result, error)
	UpdateItemQuantity(ctx context.Context, cartID, lineItemID snowflake.ID, qty int64) (*Result, error)
	RemoveItem(ctx context.Context, cartID, lineItemID snowflake.ID) (*Result, error)

	AddCoupon(ctx context.Context, cartID snowflake.ID, code string) (*Result, error)
	RemoveCoupon(ctx context.Context, cartID snowflake.ID, code string) (*Result, error)
	AddReferral(ctx context.Context, cartID snowflake.ID, code string) (*Result, error)
	RemoveReferral(ctx context.Context, cartID snowflake.ID) (*Result, error)

	// CloseSession runs the final evaluation with a closed session state and
	// marks the cart ordered. The cart accepts no mutations afterwards.
	CloseSession(ctx context.Context, cartID snowflake.ID) (*Result, error)

	// LoyaltySummary returns the pending loyalty point delta for the cart.
	// ok is false when loyalty is disabled or nothing is pending.
	LoyaltySummary(ctx context.Context, cartID snowflake.ID) (points float64, ok bool, err error)
}
