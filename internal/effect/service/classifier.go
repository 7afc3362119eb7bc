package service

import (
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Classifier struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

type ClassifierParam struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewClassifier(p ClassifierParam) effectdomain.Classifier {
	return &Classifier{
		log:     p.Log.Named("effect.classifier"),
		metrics: p.Metrics,
	}
}

// Classify walks the effect list once per concern: a first pass indexes the
// accepted coupon codes so discount buckets can carry the code that
// triggered them, a second pass builds the buckets. Duplicate adjustment
// keys sum their discounts; descriptive fields come from the first
// occurrence.
func (c *Classifier) Classify(effects []effectdomain.Effect) *effectdomain.ClassifiedEffects {
	out := effectdomain.NewClassifiedEffects()

	codesByCoupon := map[int64]string{}
	codesByCampaign := map[int64]string{}
	for _, e := range effects {
		if e.EffectType != effectdomain.EffectAcceptCoupon || e.Props.Code == "" {
			continue
		}
		if e.TriggeredByCoupon != 0 {
			if _, ok := codesByCoupon[e.TriggeredByCoupon]; !ok {
				codesByCoupon[e.TriggeredByCoupon] = e.Props.Code
			}
		}
		if _, ok := codesByCampaign[e.CampaignID]; !ok {
			codesByCampaign[e.CampaignID] = e.Props.Code
		}
	}
	couponCode := func(e effectdomain.Effect) string {
		if code, ok := codesByCoupon[e.TriggeredByCoupon]; ok {
			return code
		}
		return codesByCampaign[e.CampaignID]
	}

	for _, e := range effects {
		switch e.EffectType {
		case effectdomain.EffectSetDiscount:
			accumulate(out.Order, effectdomain.OrderKey(e), e, couponCode(e))

		case effectdomain.EffectSetDiscountPerItem:
			details, ok := out.Product[e.Props.Position]
			if !ok {
				details = map[string]*effectdomain.AdjustmentDetail{}
				out.Product[e.Props.Position] = details
			}
			accumulate(details, effectdomain.ProductKey(e), e, couponCode(e))

		case effectdomain.EffectSetDiscountPerAdditionalCost:
			accumulate(out.Shipping, effectdomain.ShippingKey(e), e, couponCode(e))

		case effectdomain.EffectAddFreeItem:
			item, ok := out.FreeItems[e.Props.SKU]
			if !ok {
				item = &effectdomain.FreeItemDetail{
					SKU:         e.Props.SKU,
					CampaignID:  e.CampaignID,
					RuleName:    e.RuleName,
					TriggeredBy: e.TriggeredByCoupon,
					CouponCode:  couponCode(e),
				}
				out.FreeItems[e.Props.SKU] = item
			}
			item.Qty++

		case effectdomain.EffectAcceptCoupon:
			if _, ok := out.AcceptedCoupons[e.Props.Code]; !ok {
				out.AcceptedCoupons[e.Props.Code] = &effectdomain.AcceptedCoupon{
					Code:       e.Props.Code,
					CampaignID: e.CampaignID,
					RuleName:   e.RuleName,
				}
			}

		case effectdomain.EffectRejectCoupon:
			if _, ok := out.RejectedCoupons[e.Props.Code]; !ok {
				out.RejectedCoupons[e.Props.Code] = &effectdomain.RejectedCoupon{
					Code:       e.Props.Code,
					Reason:     e.Props.RejectionReason,
					CampaignID: e.CampaignID,
					RuleName:   e.RuleName,
				}
			}

		case effectdomain.EffectAcceptReferral:
			if out.AcceptedReferral == nil {
				out.AcceptedReferral = &effectdomain.AcceptedReferral{
					Code:     e.Props.Code,
					RuleName: e.RuleName,
				}
			}

		case effectdomain.EffectRejectReferral:
			if out.RejectedReferral == nil {
				out.RejectedReferral = &effectdomain.RejectedReferral{
					Code:     e.Props.Code,
					Reason:   e.Props.RejectionReason,
					RuleName: e.RuleName,
				}
			}

		case effectdomain.EffectAddLoyaltyPoints:
			out.LoyaltyNet += e.Props.Value

		case effectdomain.EffectDeductLoyaltyPoints:
			out.LoyaltyNet -= e.Props.Value

		default:
			c.metrics.UnknownEffectsTotal.Inc()
			c.log.Warn("skipping unknown effect type",
				zap.String("effect_type", string(e.EffectType)),
				zap.Int64("campaign_id", e.CampaignID),
			)
		}
	}

	return out
}

func accumulate(details map[string]*effectdomain.AdjustmentDetail, key effectdomain.AdjustmentKey, e effectdomain.Effect, code string) {
	encoded := key.Encode()
	if d, ok := details[encoded]; ok {
		d.Discount += effectdomain.Cents(e.Props.Value)
		return
	}
	details[encoded] = &effectdomain.AdjustmentDetail{
		CampaignID:  e.CampaignID,
		RulesetID:   e.RulesetID,
		RuleName:    e.RuleName,
		EffectType:  e.EffectType,
		Discount:    effectdomain.Cents(e.Props.Value),
		TriggeredBy: e.TriggeredByCoupon,
		CouponCode:  code,
	}
}
