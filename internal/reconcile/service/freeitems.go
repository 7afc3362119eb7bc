package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reconcileFreeItems converges engine-granted free quantity. Grants stack on
// top of customer-added quantity for the same SKU; a revoked grant removes
// only the free units. Returns true when a grant had to be skipped because
// the product is unknown or not orderable.
func (s *Service) reconcileFreeItems(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, classified *effectdomain.ClassifiedEffects) (bool, error) {
	rejected := map[string]bool{}
	for _, sku := range cart.RejectedFreeItemSKUs() {
		rejected[sku] = true
	}
	handled := map[string]bool{}

	var grantIDs []snowflake.ID
	for i := range cart.Adjustments {
		if cart.Adjustments[i].IsFreeItem {
			grantIDs = append(grantIDs, cart.Adjustments[i].ID)
		}
	}

	for _, adjID := range grantIDs {
		adj := adjustmentByID(cart, adjID)
		if adj == nil {
			continue
		}

		var line *cartdomain.LineItem
		if adj.LineItemID != nil {
			line = cart.LineItemByID(*adj.LineItemID)
		}
		if line == nil {
			if err := tx.WithContext(ctx).
				Delete(&cartdomain.PriceAdjustment{}, "id = ?", adj.ID).Error; err != nil {
				return false, err
			}
			dropAdjustments(cart, map[snowflake.ID]bool{adj.ID: true})
			continue
		}

		detail := classified.FreeItems[line.SKU]
		if detail == nil || rejected[line.SKU] {
			if err := s.revokeGrant(ctx, tx, cart, line.ID, adj.ID); err != nil {
				return false, err
			}
			s.metrics.AdjustmentsTotal.WithLabelValues(string(cartdomain.ScopeProduct), "remove").Inc()
			continue
		}

		handled[line.SKU] = true
		if detail.Qty == adj.FreeItemQty {
			continue
		}

		line.Quantity += detail.Qty - adj.FreeItemQty
		if err := tx.WithContext(ctx).Model(&cartdomain.LineItem{}).
			Where("id = ?", line.ID).
			Update("quantity", line.Quantity).Error; err != nil {
			return false, err
		}

		adj.FreeItemQty = detail.Qty
		adj.Amount = -(detail.Qty * line.UnitPrice)
		s.linkCoupon(cart, adj, detail.CouponCode)
		if err := tx.WithContext(ctx).Model(&cartdomain.PriceAdjustment{}).
			Where("id = ?", adj.ID).
			Updates(map[string]any{
				"free_item_qty":  adj.FreeItemQty,
				"amount_cents":   adj.Amount,
				"coupon_item_id": adj.CouponItemID,
			}).Error; err != nil {
			return false, err
		}
		s.metrics.AdjustmentsTotal.WithLabelValues(string(cartdomain.ScopeProduct), "update").Inc()
	}

	var unavailable bool
	for sku, detail := range classified.FreeItems {
		if handled[sku] || rejected[sku] {
			continue
		}
		granted, err := s.grantFreeItem(ctx, tx, cart, detail)
		if err != nil {
			return false, err
		}
		if !granted {
			unavailable = true
		}
	}
	return unavailable, nil
}

// revokeGrant removes the free units of one grant. When the line holds
// customer-added quantity too, only the free portion comes off; otherwise
// the whole line goes.
func (s *Service) revokeGrant(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, lineItemID, adjID snowflake.ID) error {
	line := cart.LineItemByID(lineItemID)
	adj := adjustmentByID(cart, adjID)
	if line == nil || adj == nil {
		return nil
	}

	remaining := line.Quantity - adj.FreeItemQty
	if remaining <= 0 {
		return s.carts.RemoveLineItem(ctx, tx, cart, lineItemID)
	}

	line.Quantity = remaining
	line.HasFreeItem = false
	if err := tx.WithContext(ctx).Model(&cartdomain.LineItem{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":      remaining,
			"has_free_item": false,
		}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).
		Delete(&cartdomain.PriceAdjustment{}, "id = ?", adj.ID).Error; err != nil {
		return err
	}
	dropAdjustments(cart, map[snowflake.ID]bool{adj.ID: true})
	return nil
}

// grantFreeItem adds one SKU's free quantity to the cart, reusing the
// shopper's existing line when present. Returns false when the product
// cannot be granted.
func (s *Service) grantFreeItem(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, detail *effectdomain.FreeItemDetail) (bool, error) {
	product, err := s.catalog.Lookup(ctx, detail.SKU)
	if err != nil {
		return false, err
	}
	if product == nil || !product.IsOrderable() {
		s.metrics.FreeItemsUnavailable.Inc()
		s.log.Warn("granted free item not orderable, skipping",
			zap.String("sku", detail.SKU),
			zap.Int64("cart_id", int64(cart.ID)),
		)
		return false, nil
	}

	line := cart.LineItemBySKU(detail.SKU)
	if line != nil {
		line.Quantity += detail.Qty
		line.HasFreeItem = true
		if err := tx.WithContext(ctx).Model(&cartdomain.LineItem{}).
			Where("id = ?", line.ID).
			Updates(map[string]any{
				"quantity":      line.Quantity,
				"has_free_item": true,
			}).Error; err != nil {
			return false, err
		}
	} else {
		item := cartdomain.LineItem{
			ID:          s.genID.Generate(),
			CartID:      cart.ID,
			ProductID:   product.ID,
			SKU:         product.SKU,
			MasterSKU:   product.MasterSKU,
			Name:        product.Name,
			Position:    cart.NextPosition(),
			Quantity:    detail.Qty,
			UnitPrice:   product.UnitPrice,
			HasFreeItem: true,
		}
		if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
			return false, err
		}
		cart.LineItems = append(cart.LineItems, item)
		line = &cart.LineItems[len(cart.LineItems)-1]
	}

	adj := cartdomain.PriceAdjustment{
		ID:                 s.genID.Generate(),
		CartID:             cart.ID,
		Scope:              cartdomain.ScopeProduct,
		LineItemID:         &line.ID,
		Tag:                "free_" + detail.SKU,
		IsEngineAdjustment: true,
		RuleName:           detail.RuleName,
		LineItemText:       detail.RuleName,
		Amount:             -(detail.Qty * line.UnitPrice),
		IsFreeItem:         true,
		FreeItemQty:        detail.Qty,
	}
	s.linkCoupon(cart, &adj, detail.CouponCode)

	if err := tx.WithContext(ctx).Create(&adj).Error; err != nil {
		return false, err
	}
	cart.Adjustments = append(cart.Adjustments, adj)
	s.metrics.AdjustmentsTotal.WithLabelValues(string(cartdomain.ScopeProduct), "create").Inc()
	return true, nil
}

func adjustmentByID(cart *cartdomain.Cart, id snowflake.ID) *cartdomain.PriceAdjustment {
	for i := range cart.Adjustments {
		if cart.Adjustments[i].ID == id {
			return &cart.Adjustments[i]
		}
	}
	return nil
}
