// Package domain models the promotion engine wire format: the customer
// session snapshot we send and the effect list that comes back.
package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
)

// Session states understood by the engine.
const (
	SessionStateOpen   = "open"
	SessionStateClosed = "closed"
)

// CartItem is one positioned entry in the session snapshot. Price is the
// unit price in decimal currency units.
type CartItem struct {
	Name       string         `json:"name"`
	SKU        string         `json:"sku"`
	Quantity   int64          `json:"quantity"`
	Price      float64        `json:"price"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// AdditionalCost is a named non-merchandise cost, e.g. shippingCost.
type AdditionalCost struct {
	Price float64 `json:"price"`
}

// CustomerSession is the full cart snapshot sent on every evaluation. The
// engine treats each snapshot as a replacement, never a delta.
type CustomerSession struct {
	ProfileID       string                    `json:"profileId,omitempty"`
	State           string                    `json:"state,omitempty"`
	CouponCodes     []string                  `json:"couponCodes"`
	ReferralCode    string                    `json:"referralCode,omitempty"`
	CartItems       []CartItem                `json:"cartItems"`
	AdditionalCosts map[string]AdditionalCost `json:"additionalCosts,omitempty"`
	Attributes      map[string]any            `json:"attributes,omitempty"`
}

// Snapshot pairs the outbound session payload with the mapping from engine
// cart item positions (array indices) back to cart line item IDs. The
// mapping is rebuilt on every transcode and never persisted.
type Snapshot struct {
	Session   CustomerSession
	Positions map[int]snowflake.ID
}

// EvaluateRequest is the PUT body for a customer session update.
type EvaluateRequest struct {
	CustomerSession CustomerSession `json:"customerSession"`
	ResponseContent []string        `json:"responseContent,omitempty"`
}

// EvaluateResponse carries the engine's effect list for the session state
// just sent.
type EvaluateResponse struct {
	Effects []effectdomain.Effect `json:"effects"`
}

// Error is a non-2xx engine response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: status %d: %s", e.StatusCode, e.Message)
}

// Evaluator sends a cart snapshot to the engine and returns the resulting
// effects. Implementations may rebind cart.SessionID when the engine reports
// the previous session as no longer usable; the caller persists the cart.
type Evaluator interface {
	Evaluate(ctx context.Context, cart *cartdomain.Cart, state string) (*EvaluateResponse, *Snapshot, error)
}
