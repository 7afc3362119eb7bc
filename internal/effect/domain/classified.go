package domain

// AdjustmentDetail is the per-key aggregate a discount scope converges to.
// Discount is the summed magnitude in cents across every effect that mapped
// to the same key.
type AdjustmentDetail struct {
	CampaignID  int64
	RulesetID   int64
	RuleName    string
	EffectType  EffectType
	Discount    int64
	TriggeredBy int64
	CouponCode  string
}

// FreeItemDetail is the cumulative free quantity the engine currently grants
// for one SKU.
type FreeItemDetail struct {
	SKU         string
	Qty         int64
	CampaignID  int64
	RuleName    string
	TriggeredBy int64
	CouponCode  string
}

// AcceptedCoupon marks one coupon code the engine accepted this evaluation.
type AcceptedCoupon struct {
	Code       string
	CampaignID int64
	RuleName   string
}

// AcceptedReferral marks the active referral code as accepted.
type AcceptedReferral struct {
	Code     string
	RuleName string
}

// RejectedCoupon carries the engine's rejection of one coupon code.
type RejectedCoupon struct {
	Code       string
	Reason     string
	CampaignID int64
	RuleName   string
}

// RejectedReferral carries the engine's rejection of the active referral.
// Only one referral is active at a time, so this is a singleton.
type RejectedReferral struct {
	Code     string
	Reason   string
	RuleName string
}

// ClassifiedEffects is the result of grouping a flat effect list into typed
// buckets. Maps are keyed by the canonical adjustment-key encoding (order,
// shipping), engine item position (product), coupon code (rejections) or SKU
// (free items). All mappings are transient: computed per reconciliation pass
// and discarded after use.
type ClassifiedEffects struct {
	Order            map[string]*AdjustmentDetail
	Product          map[int]map[string]*AdjustmentDetail
	Shipping         map[string]*AdjustmentDetail
	FreeItems        map[string]*FreeItemDetail
	AcceptedCoupons  map[string]*AcceptedCoupon
	RejectedCoupons  map[string]*RejectedCoupon
	AcceptedReferral *AcceptedReferral
	RejectedReferral *RejectedReferral

	// Net loyalty delta: sum(add) - sum(deduct), in points.
	LoyaltyNet float64
}

// NewClassifiedEffects returns the all-empty steady state used when no
// promotions are active.
func NewClassifiedEffects() *ClassifiedEffects {
	return &ClassifiedEffects{
		Order:           map[string]*AdjustmentDetail{},
		Product:         map[int]map[string]*AdjustmentDetail{},
		Shipping:        map[string]*AdjustmentDetail{},
		FreeItems:       map[string]*FreeItemDetail{},
		AcceptedCoupons: map[string]*AcceptedCoupon{},
		RejectedCoupons: map[string]*RejectedCoupon{},
	}
}

// ProductDetails returns the per-key mapping for one engine item position.
func (c *ClassifiedEffects) ProductDetails(position int) map[string]*AdjustmentDetail {
	if details, ok := c.Product[position]; ok {
		return details
	}
	return nil
}
