package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/smallbiznis/promosync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
	cfg config.Config

	genID    *snowflake.Node
	cartRepo cartdomain.Repository
	catalog  catalogdomain.Service
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	CartRepo cartdomain.Repository
	Catalog  catalogdomain.Service
}

func NewService(p ServiceParam) cartdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("cart.service"),
		cfg: p.Cfg,

		genID:    p.GenID,
		cartRepo: p.CartRepo,
		catalog:  p.Catalog,
	}
}

func (s *Service) Create(ctx context.Context, currency string) (*cartdomain.Cart, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, cartdomain.ErrInvalidCurrency
	}

	cart := &cartdomain.Cart{
		ID:           s.genID.Generate(),
		CurrencyCode: currency,
		Status:       cartdomain.CartStatusOpen,
	}
	cart.SetAppliedCouponCodes(nil)
	cart.SetRejectedFreeItemSKUs(nil)

	// Every cart starts with one default shipping line; the engine adjusts
	// its cost through shipping-scope effects.
	cart.ShippingItems = []cartdomain.ShippingLineItem{{
		ID:       s.genID.Generate(),
		CartID:   cart.ID,
		MethodID: "standard",
	}}

	if err := s.cartRepo.Create(ctx, s.db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*cartdomain.Cart, error) {
	cart, err := s.cartRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, cartdomain.ErrCartNotFound
	}
	return cart, nil
}

// AddLineItem adds qty units of sku to the cart, merging into an existing
// line for the same SKU. The aggregate is updated in place.
func (s *Service) AddLineItem(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, sku string, qty int64) (*cartdomain.LineItem, error) {
	if qty <= 0 {
		return nil, cartdomain.ErrInvalidQuantity
	}

	product, err := s.catalog.Lookup(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, cartdomain.ErrProductNotFound
	}
	if !product.IsOrderable() {
		return nil, cartdomain.ErrProductNotOrderable
	}

	if existing := cart.LineItemBySKU(sku); existing != nil {
		existing.Quantity += qty
		if err := tx.WithContext(ctx).Model(&cartdomain.LineItem{}).
			Where("id = ?", existing.ID).
			Update("quantity", existing.Quantity).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := cartdomain.LineItem{
		ID:        s.genID.Generate(),
		CartID:    cart.ID,
		ProductID: product.ID,
		SKU:       product.SKU,
		MasterSKU: product.MasterSKU,
		Name:      product.Name,
		Position:  cart.NextPosition(),
		Quantity:  qty,
		UnitPrice: product.UnitPrice,
	}
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	cart.LineItems = append(cart.LineItems, item)
	return &cart.LineItems[len(cart.LineItems)-1], nil
}

// RemoveLineItem deletes the line item and any adjustments attached to it.
func (s *Service) RemoveLineItem(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, lineItemID snowflake.ID) error {
	item := cart.LineItemByID(lineItemID)
	if item == nil {
		return cartdomain.ErrLineItemNotFound
	}

	if err := tx.WithContext(ctx).
		Where("line_item_id = ?", lineItemID).
		Delete(&cartdomain.PriceAdjustment{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).
		Delete(&cartdomain.LineItem{}, "id = ?", lineItemID).Error; err != nil {
		return err
	}

	items := cart.LineItems[:0]
	for i := range cart.LineItems {
		if cart.LineItems[i].ID != lineItemID {
			items = append(items, cart.LineItems[i])
		}
	}
	cart.LineItems = items

	adjustments := cart.Adjustments[:0]
	for i := range cart.Adjustments {
		a := cart.Adjustments[i]
		if a.LineItemID == nil || *a.LineItemID != lineItemID {
			adjustments = append(adjustments, a)
		}
	}
	cart.Adjustments = adjustments
	return nil
}

func (s *Service) UpdateLineItemQuantity(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart, lineItemID snowflake.ID, qty int64) error {
	if qty <= 0 {
		return cartdomain.ErrInvalidQuantity
	}
	item := cart.LineItemByID(lineItemID)
	if item == nil {
		return cartdomain.ErrLineItemNotFound
	}
	item.Quantity = qty
	return tx.WithContext(ctx).Model(&cartdomain.LineItem{}).
		Where("id = ?", lineItemID).
		Update("quantity", qty).Error
}

// RecalculateTotals recomputes the cart totals from line items and
// adjustments and persists them on the cart row.
func (s *Service) RecalculateTotals(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart) error {
	var merchandize int64
	for i := range cart.LineItems {
		item := &cart.LineItems[i]
		merchandize += item.Quantity * item.UnitPrice
	}

	var adjustmentTotal int64
	for i := range cart.Adjustments {
		if cart.Adjustments[i].Scope != cartdomain.ScopeShipping {
			adjustmentTotal += cart.Adjustments[i].Amount
		}
	}

	var shipping int64
	for i := range cart.ShippingItems {
		shipping += cart.ShippingItems[i].AppliedCost
	}

	cart.MerchandizeTotal = merchandize
	cart.AdjustedTotal = merchandize + adjustmentTotal + shipping
	if cart.AdjustedTotal < 0 {
		cart.AdjustedTotal = 0
	}
	cart.ShippingTotal = shipping

	return tx.WithContext(ctx).Model(&cartdomain.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"merchandize_total_cents": cart.MerchandizeTotal,
			"adjusted_total_cents":    cart.AdjustedTotal,
			"shipping_total_cents":    cart.ShippingTotal,
		}).Error
}

// ApplyShippingCost reapplies each shipping line's cost from its base cost
// and the shipping-scope adjustments currently on the cart. Runs after all
// discount scopes are settled so shipping totals reflect final adjustments.
func (s *Service) ApplyShippingCost(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart) error {
	for i := range cart.ShippingItems {
		line := &cart.ShippingItems[i]

		applied := line.Cost
		for _, adj := range cart.ShippingAdjustments(line.ID) {
			applied += adj.Amount
		}
		if applied < 0 {
			applied = 0
		}

		if applied == line.AppliedCost {
			continue
		}
		line.AppliedCost = applied
		if err := tx.WithContext(ctx).Model(&cartdomain.ShippingLineItem{}).
			Where("id = ?", line.ID).
			Update("applied_cost_cents", applied).Error; err != nil {
			return err
		}
	}
	return nil
}
