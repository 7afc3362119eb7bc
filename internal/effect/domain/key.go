package domain

import (
	"strconv"
	"strings"
)

// AdjustmentKey correlates an engine effect with the cart adjustment it
// created. Equal inputs always yield the same key, which is what makes
// re-running reconciliation on unchanged effects a no-op. Components are
// numeric engine identifiers, so the canonical "_"-joined encoding cannot
// collide with the separator.
type AdjustmentKey struct {
	RulesetID   int64
	CampaignID  int64
	Position    int
	TriggeredBy int64

	positional bool
}

// OrderKey derives the order-scope key: ruleset_campaign[_coupon].
func OrderKey(e Effect) AdjustmentKey {
	return AdjustmentKey{
		RulesetID:   e.RulesetID,
		CampaignID:  e.CampaignID,
		TriggeredBy: e.TriggeredByCoupon,
	}
}

// ProductKey derives the product-scope key: position_campaign[_coupon].
// Position is the engine's cart-item position from the effect payload.
func ProductKey(e Effect) AdjustmentKey {
	return AdjustmentKey{
		CampaignID:  e.CampaignID,
		Position:    e.Props.Position,
		TriggeredBy: e.TriggeredByCoupon,
		positional:  true,
	}
}

// ShippingKey derives the shipping-scope key: ruleset_campaign[_coupon].
func ShippingKey(e Effect) AdjustmentKey {
	return AdjustmentKey{
		RulesetID:   e.RulesetID,
		CampaignID:  e.CampaignID,
		TriggeredBy: e.TriggeredByCoupon,
	}
}

// Encode renders the canonical string form persisted as the adjustment tag.
func (k AdjustmentKey) Encode() string {
	parts := make([]string, 0, 3)
	if k.positional {
		parts = append(parts, strconv.Itoa(k.Position))
	} else {
		parts = append(parts, strconv.FormatInt(k.RulesetID, 10))
	}
	parts = append(parts, strconv.FormatInt(k.CampaignID, 10))
	if k.TriggeredBy != 0 {
		parts = append(parts, strconv.FormatInt(k.TriggeredBy, 10))
	}
	return strings.Join(parts, "_")
}
