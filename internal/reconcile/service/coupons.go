package service

import (
	"context"

	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ensureAcceptedCoupons creates a coupon line item for every code the engine
// accepted this evaluation. Runs before the discount scopes so triggered
// adjustments can link to their coupon item.
func (s *Service) ensureAcceptedCoupons(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects) error {
	for code := range classified.AcceptedCoupons {
		if cart.CouponByCode(code) != nil {
			continue
		}
		item := cartdomain.CouponLineItem{
			ID:     s.genID.Generate(),
			CartID: cart.ID,
			Code:   code,
		}
		if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
			return err
		}
		cart.Coupons = append(cart.Coupons, item)
	}
	return nil
}

// settleRejections runs after the discount scopes: explicitly rejected
// coupons lose their line item and leave the attempted list so they are not
// re-sent forever; coupons the engine merely stayed silent about are
// retained. A rejected referral clears the cart's referral code only when it
// names the code currently on the cart.
func (s *Service) settleRejections(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects) error {
	if len(classified.RejectedCoupons) > 0 {
		kept := cart.Coupons[:0]
		for i := range cart.Coupons {
			item := cart.Coupons[i]
			if _, rejected := classified.RejectedCoupons[item.Code]; !rejected {
				kept = append(kept, item)
				continue
			}
			if err := tx.WithContext(ctx).
				Delete(&cartdomain.CouponLineItem{}, "id = ?", item.ID).Error; err != nil {
				return err
			}
		}
		cart.Coupons = kept

		var remaining []string
		for _, code := range cart.AppliedCouponCodes() {
			if rc, ok := classified.RejectedCoupons[code]; ok {
				s.metrics.CouponRejectionsTotal.WithLabelValues(rc.Reason).Inc()
				s.log.Info("coupon rejected by engine",
					zap.String("coupon_code", code),
					zap.String("reason", rc.Reason),
				)
				continue
			}
			remaining = append(remaining, code)
		}
		cart.SetAppliedCouponCodes(remaining)
	}

	if classified.RejectedReferral != nil && cart.ReferralCode != "" &&
		classified.RejectedReferral.Code == cart.ReferralCode {
		s.log.Info("referral rejected by engine",
			zap.String("referral_code", cart.ReferralCode),
			zap.String("reason", classified.RejectedReferral.Reason),
		)
		cart.ReferralCode = ""
	}
	return nil
}
