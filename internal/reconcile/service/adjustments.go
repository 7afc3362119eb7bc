package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) reconcileOrder(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects) error {
	return s.reconcileScope(ctx, tx, cart, cartdomain.ScopeOrder,
		engineAdjustments(cart, cartdomain.ScopeOrder, nil),
		classified.Order,
		func(*cartdomain.PriceAdjustment) {},
	)
}

// reconcileProducts settles product-scope adjustments line by line. Effect
// positions index into the snapshot's cart item array; the snapshot maps
// them back to line item IDs.
func (s *Service) reconcileProducts(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects, snapshot *enginedomain.Snapshot) error {
	byLine := map[snowflake.ID]map[string]*effectdomain.AdjustmentDetail{}
	for position, details := range classified.Product {
		lineItemID, ok := snapshot.Positions[position]
		if !ok {
			s.log.Warn("discount references unknown cart item position",
				zap.Int("position", position),
				zap.Int64("cart_id", int64(cart.ID)),
			)
			continue
		}
		target, ok := byLine[lineItemID]
		if !ok {
			target = map[string]*effectdomain.AdjustmentDetail{}
			byLine[lineItemID] = target
		}
		for tag, d := range details {
			target[tag] = d
		}
	}

	// Walk every line, not just granted ones, so stale adjustments on lines
	// that lost their discounts get removed.
	lineIDs := make([]snowflake.ID, 0, len(cart.LineItems))
	for i := range cart.LineItems {
		lineIDs = append(lineIDs, cart.LineItems[i].ID)
	}
	for _, lineItemID := range lineIDs {
		id := lineItemID
		err := s.reconcileScope(ctx, tx, cart, cartdomain.ScopeProduct,
			engineAdjustments(cart, cartdomain.ScopeProduct, &id),
			byLine[id],
			func(a *cartdomain.PriceAdjustment) { a.LineItemID = &id },
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// reconcileShipping settles shipping-scope adjustments against the cart's
// first shipping line.
func (s *Service) reconcileShipping(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects) error {
	var shippingItemID *snowflake.ID
	if len(cart.ShippingItems) > 0 {
		shippingItemID = &cart.ShippingItems[0].ID
	}
	return s.reconcileScope(ctx, tx, cart, cartdomain.ScopeShipping,
		engineAdjustments(cart, cartdomain.ScopeShipping, nil),
		classified.Shipping,
		func(a *cartdomain.PriceAdjustment) { a.ShippingItemID = shippingItemID },
	)
}

// reconcileScope converges one scope's adjustments onto the classified
// details: adjustments whose tag is absent are removed, present ones are
// marked seen and updated when the amount drifted, unseen details become new
// adjustments. Tags never repeat within a scope, so one pass suffices.
func (s *Service) reconcileScope(
	ctx context.Context,
	tx *gorm.DB,
	cart *cartdomain.Cart,
	scope cartdomain.AdjustmentScope,
	existing []*cartdomain.PriceAdjustment,
	details map[string]*effectdomain.AdjustmentDetail,
	attach func(*cartdomain.PriceAdjustment),
) error {
	seen := map[string]bool{}
	removed := map[snowflake.ID]bool{}

	for _, adj := range existing {
		d, ok := details[adj.Tag]
		if !ok {
			if err := tx.WithContext(ctx).
				Delete(&cartdomain.PriceAdjustment{}, "id = ?", adj.ID).Error; err != nil {
				return err
			}
			removed[adj.ID] = true
			s.metrics.AdjustmentsTotal.WithLabelValues(string(scope), "remove").Inc()
			continue
		}

		seen[adj.Tag] = true
		want := -d.Discount
		if adj.Amount == want && adj.RuleName == d.RuleName {
			continue
		}
		adj.Amount = want
		adj.RuleName = d.RuleName
		adj.LineItemText = d.RuleName
		s.linkCoupon(cart, adj, d.CouponCode)
		if err := tx.WithContext(ctx).Model(&cartdomain.PriceAdjustment{}).
			Where("id = ?", adj.ID).
			Updates(map[string]any{
				"amount_cents":   adj.Amount,
				"rule_name":      adj.RuleName,
				"line_item_text": adj.LineItemText,
				"coupon_item_id": adj.CouponItemID,
			}).Error; err != nil {
			return err
		}
		s.metrics.AdjustmentsTotal.WithLabelValues(string(scope), "update").Inc()
	}
	dropAdjustments(cart, removed)

	for tag, d := range details {
		if seen[tag] {
			continue
		}
		adj := cartdomain.PriceAdjustment{
			ID:                 s.genID.Generate(),
			CartID:             cart.ID,
			Scope:              scope,
			Tag:                tag,
			IsEngineAdjustment: true,
			RuleName:           d.RuleName,
			LineItemText:       d.RuleName,
			Amount:             -d.Discount,
		}
		attach(&adj)
		s.linkCoupon(cart, &adj, d.CouponCode)

		if err := tx.WithContext(ctx).Create(&adj).Error; err != nil {
			return err
		}
		cart.Adjustments = append(cart.Adjustments, adj)
		s.metrics.AdjustmentsTotal.WithLabelValues(string(scope), "create").Inc()
	}
	return nil
}

// linkCoupon attaches the coupon line item that triggered the discount. A
// missing coupon item is logged and skipped; the discount still applies.
func (s *Service) linkCoupon(cart *cartdomain.Cart, adj *cartdomain.PriceAdjustment, code string) {
	if code == "" {
		return
	}
	coupon := cart.CouponByCode(code)
	if coupon == nil {
		s.log.Warn("coupon line item missing for triggered discount",
			zap.String("coupon_code", code),
			zap.String("tag", adj.Tag),
		)
		return
	}
	adj.CouponItemID = &coupon.ID
}
