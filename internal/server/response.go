package server

import (
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	promotiondomain "github.com/smallbiznis/promosync/internal/promotion/domain"
)

type adjustmentResponse struct {
	ID           string `json:"id"`
	Tag          string `json:"tag,omitempty"`
	RuleName     string `json:"rule_name,omitempty"`
	LineItemText string `json:"line_item_text,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	IsFreeItem   bool   `json:"is_free_item,omitempty"`
	FreeItemQty  int64  `json:"free_item_qty,omitempty"`
}

type lineItemResponse struct {
	ID             string               `json:"id"`
	SKU            string               `json:"sku"`
	Name           string               `json:"name"`
	Position       int                  `json:"position"`
	Quantity       int64                `json:"quantity"`
	FreeQuantity   int64                `json:"free_quantity,omitempty"`
	UnitPriceCents int64                `json:"unit_price_cents"`
	HasFreeItem    bool                 `json:"has_free_item,omitempty"`
	Adjustments    []adjustmentResponse `json:"adjustments,omitempty"`
}

type shippingItemResponse struct {
	ID               string               `json:"id"`
	MethodID         string               `json:"method_id"`
	CostCents        int64                `json:"cost_cents"`
	AppliedCostCents int64                `json:"applied_cost_cents"`
	Adjustments      []adjustmentResponse `json:"adjustments,omitempty"`
}

type couponItemResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type cartResponse struct {
	ID           string `json:"id"`
	CurrencyCode string `json:"currency_code"`
	Status       string `json:"status"`

	LineItems     []lineItemResponse     `json:"line_items"`
	ShippingItems []shippingItemResponse `json:"shipping_items,omitempty"`
	Coupons       []couponItemResponse   `json:"coupons,omitempty"`

	OrderAdjustments []adjustmentResponse `json:"order_adjustments,omitempty"`

	AppliedCouponCodes []string `json:"applied_coupon_codes"`
	ReferralCode       string   `json:"referral_code,omitempty"`

	MerchandizeTotalCents int64 `json:"merchandize_total_cents"`
	AdjustedTotalCents    int64 `json:"adjusted_total_cents"`
	ShippingTotalCents    int64 `json:"shipping_total_cents"`

	Messages []string `json:"messages,omitempty"`
}

func newAdjustmentResponse(a *cartdomain.PriceAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:           a.ID.String(),
		Tag:          a.Tag,
		RuleName:     a.RuleName,
		LineItemText: a.LineItemText,
		AmountCents:  a.Amount,
		IsFreeItem:   a.IsFreeItem,
		FreeItemQty:  a.FreeItemQty,
	}
}

func adjustmentResponses(adjustments []*cartdomain.PriceAdjustment) []adjustmentResponse {
	if len(adjustments) == 0 {
		return nil
	}
	out := make([]adjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		out = append(out, newAdjustmentResponse(a))
	}
	return out
}

func newCartResponse(cart *cartdomain.Cart, messages []string) cartResponse {
	resp := cartResponse{
		ID:           cart.ID.String(),
		CurrencyCode: cart.CurrencyCode,
		Status:       string(cart.Status),

		LineItems: make([]lineItemResponse, 0, len(cart.LineItems)),

		OrderAdjustments: adjustmentResponses(cart.OrderAdjustments()),

		AppliedCouponCodes: cart.AppliedCouponCodes(),
		ReferralCode:       cart.ReferralCode,

		MerchandizeTotalCents: cart.MerchandizeTotal,
		AdjustedTotalCents:    cart.AdjustedTotal,
		ShippingTotalCents:    cart.ShippingTotal,

		Messages: messages,
	}
	if resp.AppliedCouponCodes == nil {
		resp.AppliedCouponCodes = []string{}
	}

	for i := range cart.LineItems {
		line := &cart.LineItems[i]
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			ID:             line.ID.String(),
			SKU:            line.SKU,
			Name:           line.Name,
			Position:       line.Position,
			Quantity:       line.Quantity,
			FreeQuantity:   cart.FreeQuantity(line.ID),
			UnitPriceCents: line.UnitPrice,
			HasFreeItem:    line.HasFreeItem,
			Adjustments:    adjustmentResponses(cart.LineItemAdjustments(line.ID)),
		})
	}

	for i := range cart.ShippingItems {
		item := &cart.ShippingItems[i]
		resp.ShippingItems = append(resp.ShippingItems, shippingItemResponse{
			ID:               item.ID.String(),
			MethodID:         item.MethodID,
			CostCents:        item.Cost,
			AppliedCostCents: item.AppliedCost,
			Adjustments:      adjustmentResponses(cart.ShippingAdjustments(item.ID)),
		})
	}

	for i := range cart.Coupons {
		coupon := &cart.Coupons[i]
		resp.Coupons = append(resp.Coupons, couponItemResponse{
			ID:   coupon.ID.String(),
			Code: coupon.Code,
		})
	}

	return resp
}

func newResultResponse(result *promotiondomain.Result) cartResponse {
	return newCartResponse(result.Cart, result.Messages)
}
