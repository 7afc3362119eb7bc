// Package domain contains the cart aggregate. The cart is the mutable state
// the reconciliation pass converges: line items, tagged price adjustments,
// coupon line items and referral state.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CartStatus string

var (
	CartStatusOpen    CartStatus = "OPEN"
	CartStatusOrdered CartStatus = "ORDERED"
)

// AdjustmentScope identifies which sub-resource a price adjustment belongs to.
type AdjustmentScope string

var (
	ScopeOrder    AdjustmentScope = "ORDER"
	ScopeProduct  AdjustmentScope = "PRODUCT"
	ScopeShipping AdjustmentScope = "SHIPPING"
)

// Cart is the aggregate root. Engine session identifiers live on the cart so
// one shopper's evaluation stream stays correlated across requests.
type Cart struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	CurrencyCode string       `gorm:"type:text;not null"`
	Status       CartStatus   `gorm:"type:text;not null;default:OPEN"`

	SessionID string `gorm:"type:text"`
	ProfileID string `gorm:"type:text"`

	ShippingMethodID string `gorm:"type:text"`
	ShippingCity     string `gorm:"type:text"`
	PaymentMethod    string `gorm:"type:text"`

	// Engine-applied coupon codes, distinct from platform-native coupons.
	CouponCodes  datatypes.JSON `gorm:"type:jsonb"`
	ReferralCode string         `gorm:"type:text"`
	// SKUs of engine-granted free items the shopper removed; echoed back to
	// the engine so the grant is not re-issued.
	RejectedFreeItems datatypes.JSON `gorm:"type:jsonb"`

	MerchandizeTotal int64 `gorm:"column:merchandize_total_cents;not null;default:0"`
	AdjustedTotal    int64 `gorm:"column:adjusted_total_cents;not null;default:0"`
	ShippingTotal    int64 `gorm:"column:shipping_total_cents;not null;default:0"`

	LineItems     []LineItem         `gorm:"foreignKey:CartID"`
	ShippingItems []ShippingLineItem `gorm:"foreignKey:CartID"`
	Coupons       []CouponLineItem   `gorm:"foreignKey:CartID"`
	Adjustments   []PriceAdjustment  `gorm:"foreignKey:CartID"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Cart) TableName() string { return "carts" }

// LineItem is one product position in the cart. Position is assigned once on
// insert and is the correlation handle sent to the promotion engine.
type LineItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CartID    snowflake.ID `gorm:"not null;index"`
	ProductID snowflake.ID `gorm:"not null"`
	SKU       string       `gorm:"type:text;not null"`
	MasterSKU string       `gorm:"type:text"`
	Name      string       `gorm:"type:text;not null"`
	Position  int          `gorm:"not null"`
	Quantity  int64        `gorm:"not null"`
	UnitPrice int64        `gorm:"column:unit_price_cents;not null"`
	// Set when part of this line's quantity is an engine-granted free item.
	HasFreeItem bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LineItem) TableName() string { return "cart_line_items" }

// ShippingLineItem is one shipping cost line on the cart.
type ShippingLineItem struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	CartID   snowflake.ID `gorm:"not null;index"`
	MethodID string       `gorm:"type:text;not null"`
	// Base carrier cost before engine adjustments.
	Cost int64 `gorm:"column:cost_cents;not null"`
	// Cost after shipping-scope adjustments, never below zero.
	AppliedCost int64     `gorm:"column:applied_cost_cents;not null"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ShippingLineItem) TableName() string { return "cart_shipping_items" }

// CouponLineItem records an engine-accepted coupon code on the cart.
type CouponLineItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CartID    snowflake.ID `gorm:"not null;index"`
	Code      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CouponLineItem) TableName() string { return "cart_coupon_items" }

// PriceAdjustment is a priced delta attached to the order, one line item, or
// one shipping line. Engine-created adjustments carry Tag, the canonical
// encoding of the adjustment key that created them; Tag is the correlation
// handle between successive reconciliation passes.
type PriceAdjustment struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	CartID         snowflake.ID    `gorm:"not null;index"`
	Scope          AdjustmentScope `gorm:"type:text;not null"`
	LineItemID     *snowflake.ID   `gorm:"index"`
	ShippingItemID *snowflake.ID   `gorm:"index"`
	CouponItemID   *snowflake.ID   `gorm:""`

	Tag                string `gorm:"type:text;index"`
	IsEngineAdjustment bool   `gorm:"not null;default:false"`
	RuleName           string `gorm:"type:text"`
	LineItemText       string `gorm:"type:text"`

	// Stored as a negative price delta; reconciliation works with the
	// non-negative magnitude.
	Amount int64 `gorm:"column:amount_cents;not null"`

	IsFreeItem  bool  `gorm:"not null;default:false"`
	FreeItemQty int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceAdjustment) TableName() string { return "cart_price_adjustments" }

// Magnitude returns the non-negative discount the adjustment represents.
func (a *PriceAdjustment) Magnitude() int64 {
	if a.Amount < 0 {
		return -a.Amount
	}
	return a.Amount
}

// OrderAdjustments returns the order-scope adjustments on the aggregate.
func (c *Cart) OrderAdjustments() []*PriceAdjustment {
	return c.adjustmentsWhere(func(a *PriceAdjustment) bool {
		return a.Scope == ScopeOrder
	})
}

// LineItemAdjustments returns the product-scope adjustments for one line.
func (c *Cart) LineItemAdjustments(lineItemID snowflake.ID) []*PriceAdjustment {
	return c.adjustmentsWhere(func(a *PriceAdjustment) bool {
		return a.Scope == ScopeProduct && a.LineItemID != nil && *a.LineItemID == lineItemID
	})
}

// ShippingAdjustments returns the shipping-scope adjustments for one
// shipping line.
func (c *Cart) ShippingAdjustments(shippingItemID snowflake.ID) []*PriceAdjustment {
	return c.adjustmentsWhere(func(a *PriceAdjustment) bool {
		return a.Scope == ScopeShipping && a.ShippingItemID != nil && *a.ShippingItemID == shippingItemID
	})
}

func (c *Cart) adjustmentsWhere(keep func(*PriceAdjustment) bool) []*PriceAdjustment {
	var out []*PriceAdjustment
	for i := range c.Adjustments {
		if keep(&c.Adjustments[i]) {
			out = append(out, &c.Adjustments[i])
		}
	}
	return out
}

// FreeQuantity returns how many units of the line are engine-granted free
// items, summed over its free item adjustments.
func (c *Cart) FreeQuantity(lineItemID snowflake.ID) int64 {
	var qty int64
	for i := range c.Adjustments {
		a := &c.Adjustments[i]
		if a.IsFreeItem && a.LineItemID != nil && *a.LineItemID == lineItemID {
			qty += a.FreeItemQty
		}
	}
	return qty
}

// LineItemByID returns the line item with the given ID, or nil.
func (c *Cart) LineItemByID(id snowflake.ID) *LineItem {
	for i := range c.LineItems {
		if c.LineItems[i].ID == id {
			return &c.LineItems[i]
		}
	}
	return nil
}

// LineItemBySKU returns the first line item carrying the SKU, or nil.
func (c *Cart) LineItemBySKU(sku string) *LineItem {
	for i := range c.LineItems {
		if c.LineItems[i].SKU == sku {
			return &c.LineItems[i]
		}
	}
	return nil
}

// CouponByCode returns the coupon line item for the code, or nil.
func (c *Cart) CouponByCode(code string) *CouponLineItem {
	for i := range c.Coupons {
		if c.Coupons[i].Code == code {
			return &c.Coupons[i]
		}
	}
	return nil
}

// AppliedCouponCodes decodes the engine-applied coupon code list.
func (c *Cart) AppliedCouponCodes() []string {
	return decodeStrings(c.CouponCodes)
}

// SetAppliedCouponCodes encodes the engine-applied coupon code list.
func (c *Cart) SetAppliedCouponCodes(codes []string) {
	c.CouponCodes = encodeStrings(codes)
}

// RejectedFreeItemSKUs decodes the shopper-removed free item list.
func (c *Cart) RejectedFreeItemSKUs() []string {
	return decodeStrings(c.RejectedFreeItems)
}

// SetRejectedFreeItemSKUs encodes the shopper-removed free item list.
func (c *Cart) SetRejectedFreeItemSKUs(skus []string) {
	c.RejectedFreeItems = encodeStrings(skus)
}

// NextPosition returns the position to assign to a newly added line item.
func (c *Cart) NextPosition() int {
	next := 1
	for i := range c.LineItems {
		if c.LineItems[i].Position >= next {
			next = c.LineItems[i].Position + 1
		}
	}
	return next
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
