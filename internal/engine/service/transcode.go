package service

import (
	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"github.com/smallbiznis/promosync/internal/config"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
)

// BuildSnapshot transcodes the cart into the engine's customer session
// payload. Engine-granted free quantity is subtracted from each line so a
// grant is never compounded by re-evaluation; a line whose quantity is
// entirely free is left out of the snapshot.
func BuildSnapshot(cfg config.Config, cart *cartdomain.Cart, state string) *enginedomain.Snapshot {
	snapshot := &enginedomain.Snapshot{
		Session: enginedomain.CustomerSession{
			ProfileID:   cart.ProfileID,
			State:       state,
			CouponCodes: appliedCoupons(cart),
			CartItems:   []enginedomain.CartItem{},
		},
		Positions: map[int]snowflake.ID{},
	}
	if cfg.ReferralEnabled {
		snapshot.Session.ReferralCode = cart.ReferralCode
	}

	for i := range cart.LineItems {
		item := &cart.LineItems[i]

		qty := item.Quantity
		if item.HasFreeItem {
			qty -= cart.FreeQuantity(item.ID)
		}
		if qty <= 0 {
			continue
		}

		attributes := map[string]any{
			"itemPosition": item.Position,
		}
		if item.MasterSKU != "" {
			attributes["masterSku"] = item.MasterSKU
		}

		snapshot.Positions[len(snapshot.Session.CartItems)] = item.ID
		snapshot.Session.CartItems = append(snapshot.Session.CartItems, enginedomain.CartItem{
			Name:       item.Name,
			SKU:        item.SKU,
			Quantity:   qty,
			Price:      centsToDecimal(item.UnitPrice),
			Attributes: attributes,
		})
	}

	var shippingCost int64
	for i := range cart.ShippingItems {
		shippingCost += cart.ShippingItems[i].Cost
	}
	if shippingCost > 0 {
		snapshot.Session.AdditionalCosts = map[string]enginedomain.AdditionalCost{
			"shippingCost": {Price: centsToDecimal(shippingCost)},
		}
	}

	attributes := map[string]any{
		"currency": cart.CurrencyCode,
		"siteId":   cfg.SiteID,
	}
	if skus := cart.RejectedFreeItemSKUs(); len(skus) > 0 {
		attributes["rejectedFreeItems"] = skus
	}
	if cart.ShippingCity != "" {
		attributes["shippingCity"] = cart.ShippingCity
	}
	if cart.PaymentMethod != "" {
		attributes["paymentMethod"] = cart.PaymentMethod
	}
	snapshot.Session.Attributes = attributes

	return snapshot
}

func appliedCoupons(cart *cartdomain.Cart) []string {
	codes := cart.AppliedCouponCodes()
	if codes == nil {
		codes = []string{}
	}
	return codes
}

func centsToDecimal(cents int64) float64 {
	return float64(cents) / 100
}
