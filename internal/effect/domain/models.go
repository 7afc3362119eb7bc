// Package domain models the declarative effects returned by the promotion
// engine and the derived structures one reconciliation pass works from.
package domain

import (
	"encoding/json"
	"math"
)

// EffectType is the closed set of effect kinds the engine can emit.
type EffectType string

const (
	EffectSetDiscount                  EffectType = "setDiscount"
	EffectSetDiscountPerItem           EffectType = "setDiscountPerItem"
	EffectSetDiscountPerAdditionalCost EffectType = "setDiscountPerAdditionalCost"
	EffectAddFreeItem                  EffectType = "addFreeItem"
	EffectAcceptCoupon                 EffectType = "acceptCoupon"
	EffectRejectCoupon                 EffectType = "rejectCoupon"
	EffectAcceptReferral               EffectType = "acceptReferral"
	EffectRejectReferral               EffectType = "rejectReferral"
	EffectAddLoyaltyPoints             EffectType = "addLoyaltyPoints"
	EffectDeductLoyaltyPoints          EffectType = "deductLoyaltyPoints"
)

// Known reports whether t is one of the enumerated effect kinds.
func (t EffectType) Known() bool {
	switch t {
	case EffectSetDiscount, EffectSetDiscountPerItem, EffectSetDiscountPerAdditionalCost,
		EffectAddFreeItem, EffectAcceptCoupon, EffectRejectCoupon,
		EffectAcceptReferral, EffectRejectReferral,
		EffectAddLoyaltyPoints, EffectDeductLoyaltyPoints:
		return true
	}
	return false
}

// Effect is one immutable record from the engine. Effects carry no identity
// across evaluations; the derived adjustment key is the only correlation
// handle.
type Effect struct {
	CampaignID        int64       `json:"campaignId"`
	RulesetID         int64       `json:"rulesetId"`
	RuleName          string      `json:"ruleName"`
	EffectType        EffectType  `json:"effectType"`
	TriggeredByCoupon int64       `json:"triggeredByCoupon,omitempty"`
	Props             EffectProps `json:"props"`
}

// EffectProps carries the effect payload. On the wire "value" is a number
// for discount and loyalty effects and a string (the code) for coupon and
// referral effects; the decoder splits the two.
type EffectProps struct {
	Value           float64
	Code            string
	Position        int
	SKU             string
	RejectionReason string
}

type effectPropsWire struct {
	Value           json.RawMessage `json:"value,omitempty"`
	Position        *float64        `json:"position,omitempty"`
	SKU             string          `json:"sku,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
}

func (p *EffectProps) UnmarshalJSON(data []byte) error {
	var wire effectPropsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*p = EffectProps{
		SKU:             wire.SKU,
		RejectionReason: wire.RejectionReason,
	}
	if wire.Position != nil {
		p.Position = int(*wire.Position)
	}
	if len(wire.Value) > 0 {
		var code string
		if err := json.Unmarshal(wire.Value, &code); err == nil {
			p.Code = code
		} else if err := json.Unmarshal(wire.Value, &p.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p EffectProps) MarshalJSON() ([]byte, error) {
	wire := effectPropsWire{
		SKU:             p.SKU,
		RejectionReason: p.RejectionReason,
	}
	if p.Position != 0 {
		pos := float64(p.Position)
		wire.Position = &pos
	}
	var err error
	if p.Code != "" {
		wire.Value, err = json.Marshal(p.Code)
	} else {
		wire.Value, err = json.Marshal(p.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// Cents converts a decimal currency amount from the engine into integer
// cents, rounding half up.
func Cents(value float64) int64 {
	return int64(math.Floor(value*100 + 0.5))
}
