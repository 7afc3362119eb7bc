package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	cartrepo "github.com/smallbiznis/promosync/internal/cart/repository"
	cartservice "github.com/smallbiznis/promosync/internal/cart/service"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/smallbiznis/promosync/internal/config"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	effectservice "github.com/smallbiznis/promosync/internal/effect/service"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	engineservice "github.com/smallbiznis/promosync/internal/engine/service"
	"github.com/smallbiznis/promosync/internal/metrics"
	reconciledomain "github.com/smallbiznis/promosync/internal/reconcile/domain"
	"github.com/smallbiznis/promosync/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type catalogStub struct {
	products map[string]*catalogdomain.Product
}

func (s *catalogStub) Lookup(_ context.Context, sku string) (*catalogdomain.Product, error) {
	return s.products[sku], nil
}

func (s *catalogStub) Create(_ context.Context, req catalogdomain.CreateRequest) (*catalogdomain.Product, error) {
	panic("unexpected call")
}

type fixture struct {
	db         *gorm.DB
	cfg        config.Config
	carts      cartdomain.Service
	sessions   session.Store
	reconciler reconciledomain.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.Cart{},
		&cartdomain.LineItem{},
		&cartdomain.ShippingLineItem{},
		&cartdomain.CouponLineItem{},
		&cartdomain.PriceAdjustment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		DefaultCurrency: "USD",
		SiteID:          "storefront",
		ProfileIDPrefix: "promosync_",
		LoyaltyEnabled:  true,
		ReferralEnabled: true,
	}
	log := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	catalog := &catalogStub{products: map[string]*catalogdomain.Product{
		"sku-a":    {ID: node.Generate(), SKU: "sku-a", Name: "Alpha", UnitPrice: 2000, Currency: "USD", Orderable: true},
		"sku-b":    {ID: node.Generate(), SKU: "sku-b", Name: "Beta", UnitPrice: 500, Currency: "USD", Orderable: true},
		"sku-gift": {ID: node.Generate(), SKU: "sku-gift", Name: "Gift", UnitPrice: 1500, Currency: "USD", Orderable: true},
		"sku-oos":  {ID: node.Generate(), SKU: "sku-oos", Name: "Sold Out", UnitPrice: 900, Currency: "USD", Orderable: false},
	}}

	carts := cartservice.NewService(cartservice.ServiceParam{
		DB:       db,
		Log:      log,
		Cfg:      cfg,
		GenID:    node,
		CartRepo: cartrepo.Provide(),
		Catalog:  catalog,
	})

	sessions := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = sessions.Close() })

	classifier := effectservice.NewClassifier(effectservice.ClassifierParam{Log: log, Metrics: m})

	reconciler := NewService(ServiceParam{
		DB:         db,
		Log:        log,
		Cfg:        cfg,
		Metrics:    m,
		GenID:      node,
		Classifier: classifier,
		Carts:      carts,
		Catalog:    catalog,
		Sessions:   sessions,
	})

	return &fixture{
		db:         db,
		cfg:        cfg,
		carts:      carts,
		sessions:   sessions,
		reconciler: reconciler,
	}
}

// newCart creates a cart holding 2x sku-a and 1x sku-b.
func (f *fixture) newCart(t *testing.T) *cartdomain.Cart {
	t.Helper()
	ctx := context.Background()

	cart, err := f.carts.Create(ctx, "USD")
	require.NoError(t, err)
	_, err = f.carts.AddLineItem(ctx, f.db, cart, "sku-a", 2)
	require.NoError(t, err)
	_, err = f.carts.AddLineItem(ctx, f.db, cart, "sku-b", 1)
	require.NoError(t, err)
	return cart
}

func (f *fixture) run(t *testing.T, cart *cartdomain.Cart, effects []effectdomain.Effect) *reconciledomain.Outcome {
	t.Helper()
	snap := engineservice.BuildSnapshot(f.cfg, cart, enginedomain.SessionStateOpen)
	outcome, err := f.reconciler.Reconcile(context.Background(), cart, effects, snap)
	require.NoError(t, err)
	return outcome
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) *cartdomain.Cart {
	t.Helper()
	cart, err := f.carts.Get(context.Background(), id)
	require.NoError(t, err)
	return cart
}

func orderDiscount(campaign, ruleset int64, value float64) effectdomain.Effect {
	return effectdomain.Effect{
		CampaignID: campaign,
		RulesetID:  ruleset,
		RuleName:   "order rule",
		EffectType: effectdomain.EffectSetDiscount,
		Props:      effectdomain.EffectProps{Value: value},
	}
}

func TestReconcileCreatesOrderAdjustment(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	f.run(t, cart, []effectdomain.Effect{orderDiscount(10, 5, 3.00)})

	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.Equal(t, cartdomain.ScopeOrder, adj.Scope)
	assert.Equal(t, "5_10", adj.Tag)
	assert.Equal(t, int64(-300), adj.Amount)
	assert.True(t, adj.IsEngineAdjustment)

	// 2*2000 + 500 - 300
	assert.Equal(t, int64(4500), got.MerchandizeTotal)
	assert.Equal(t, int64(4200), got.AdjustedTotal)
}

func TestReconcileIdempotent(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	effects := []effectdomain.Effect{
		orderDiscount(10, 5, 3.00),
		{CampaignID: 20, RulesetID: 7, EffectType: effectdomain.EffectSetDiscountPerItem, Props: effectdomain.EffectProps{Value: 2.00, Position: 0}},
	}

	f.run(t, cart, effects)
	first := f.reload(t, cart.ID)
	require.Len(t, first.Adjustments, 2)
	firstIDs := map[snowflake.ID]int64{}
	for _, a := range first.Adjustments {
		firstIDs[a.ID] = a.Amount
	}

	f.run(t, first, effects)
	second := f.reload(t, cart.ID)
	require.Len(t, second.Adjustments, 2)
	for _, a := range second.Adjustments {
		amount, ok := firstIDs[a.ID]
		require.True(t, ok, "adjustment was recreated instead of kept")
		assert.Equal(t, amount, a.Amount)
	}
	assert.Equal(t, first.AdjustedTotal, second.AdjustedTotal)
}

func TestReconcileUpdatesChangedAmount(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	f.run(t, cart, []effectdomain.Effect{orderDiscount(10, 5, 3.00)})
	cart = f.reload(t, cart.ID)
	originalID := cart.Adjustments[0].ID

	f.run(t, cart, []effectdomain.Effect{orderDiscount(10, 5, 4.50)})
	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, originalID, got.Adjustments[0].ID)
	assert.Equal(t, int64(-450), got.Adjustments[0].Amount)
}

func TestReconcileRemovesAbsentAdjustments(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	f.run(t, cart, []effectdomain.Effect{orderDiscount(10, 5, 3.00)})
	cart = f.reload(t, cart.ID)
	require.Len(t, cart.Adjustments, 1)

	f.run(t, cart, nil)
	got := f.reload(t, cart.ID)
	assert.Empty(t, got.Adjustments)
	assert.Equal(t, got.MerchandizeTotal, got.AdjustedTotal)
}

func TestReconcileConvergesFromStaleState(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	// A leftover engine adjustment no current effect accounts for.
	stale := cartdomain.PriceAdjustment{
		ID:                 snowflake.ID(999999),
		CartID:             cart.ID,
		Scope:              cartdomain.ScopeOrder,
		Tag:                "9_9",
		IsEngineAdjustment: true,
		Amount:             -1234,
	}
	require.NoError(t, f.db.Create(&stale).Error)
	cart = f.reload(t, cart.ID)

	f.run(t, cart, []effectdomain.Effect{orderDiscount(10, 5, 3.00)})
	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, "5_10", got.Adjustments[0].Tag)
}

func TestReconcileProductDiscountAttachesToLine(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	lineA := cart.LineItemBySKU("sku-a")

	effects := []effectdomain.Effect{
		{CampaignID: 20, RulesetID: 7, RuleName: "item rule", EffectType: effectdomain.EffectSetDiscountPerItem, Props: effectdomain.EffectProps{Value: 2.00, Position: 0}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.Equal(t, cartdomain.ScopeProduct, adj.Scope)
	require.NotNil(t, adj.LineItemID)
	assert.Equal(t, lineA.ID, *adj.LineItemID)
	assert.Equal(t, "0_20", adj.Tag)
	assert.Equal(t, int64(-200), adj.Amount)
}

func TestReconcileShippingDiscount(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	require.NoError(t, f.db.Model(&cartdomain.ShippingLineItem{}).
		Where("cart_id = ?", cart.ID).
		Update("cost_cents", 795).Error)
	cart = f.reload(t, cart.ID)

	effects := []effectdomain.Effect{
		{CampaignID: 30, RulesetID: 8, RuleName: "free shipping", EffectType: effectdomain.EffectSetDiscountPerAdditionalCost, Props: effectdomain.EffectProps{Value: 7.95}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.Equal(t, cartdomain.ScopeShipping, adj.Scope)
	require.NotNil(t, adj.ShippingItemID)
	assert.Equal(t, int64(-795), adj.Amount)

	require.Len(t, got.ShippingItems, 1)
	assert.Equal(t, int64(0), got.ShippingItems[0].AppliedCost)
	assert.Equal(t, int64(0), got.ShippingTotal)
}

func TestReconcileGrantsFreeItemNewLine(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	effects := []effectdomain.Effect{
		{CampaignID: 40, RuleName: "gift", EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	line := got.LineItemBySKU("sku-gift")
	require.NotNil(t, line)
	assert.Equal(t, int64(1), line.Quantity)
	assert.True(t, line.HasFreeItem)

	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.True(t, adj.IsFreeItem)
	assert.Equal(t, int64(1), adj.FreeItemQty)
	assert.Equal(t, int64(-1500), adj.Amount)

	// The free line contributes nothing to the adjusted total.
	assert.Equal(t, int64(6000), got.MerchandizeTotal)
	assert.Equal(t, int64(4500), got.AdjustedTotal)
}

func TestReconcileFreeItemPreservesCustomerQuantity(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	ctx := context.Background()
	_, err := f.carts.AddLineItem(ctx, f.db, cart, "sku-gift", 2)
	require.NoError(t, err)

	effects := []effectdomain.Effect{
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	line := got.LineItemBySKU("sku-gift")
	require.NotNil(t, line)
	assert.Equal(t, int64(3), line.Quantity)

	// Grant revoked: the customer-added units stay.
	f.run(t, got, nil)
	got = f.reload(t, cart.ID)
	line = got.LineItemBySKU("sku-gift")
	require.NotNil(t, line)
	assert.Equal(t, int64(2), line.Quantity)
	assert.False(t, line.HasFreeItem)
	assert.Empty(t, got.Adjustments)
}

func TestReconcileFreeItemRevokedRemovesLine(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	effects := []effectdomain.Effect{
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
	}
	f.run(t, cart, effects)
	cart = f.reload(t, cart.ID)
	require.NotNil(t, cart.LineItemBySKU("sku-gift"))

	f.run(t, cart, nil)
	got := f.reload(t, cart.ID)
	assert.Nil(t, got.LineItemBySKU("sku-gift"))
	assert.Empty(t, got.Adjustments)
}

func TestReconcileFreeItemIdempotent(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	effects := []effectdomain.Effect{
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
	}

	f.run(t, cart, effects)
	cart = f.reload(t, cart.ID)
	line := cart.LineItemBySKU("sku-gift")
	require.NotNil(t, line)
	assert.Equal(t, int64(2), line.Quantity)

	// The next snapshot subtracts granted quantity, so the engine sees the
	// same cart and grants the same two units again.
	f.run(t, cart, effects)
	got := f.reload(t, cart.ID)
	line = got.LineItemBySKU("sku-gift")
	require.NotNil(t, line)
	assert.Equal(t, int64(2), line.Quantity)
}

func TestReconcileFreeItemQuantityChangeKeepsCouponLink(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetAppliedCouponCodes([]string{"GIFT2"})

	accept := effectdomain.Effect{CampaignID: 40, TriggeredByCoupon: 88, EffectType: effectdomain.EffectAcceptCoupon, Props: effectdomain.EffectProps{Code: "GIFT2"}}
	grant := effectdomain.Effect{CampaignID: 40, TriggeredByCoupon: 88, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}}

	f.run(t, cart, []effectdomain.Effect{accept, grant})
	cart = f.reload(t, cart.ID)
	coupon := cart.CouponByCode("GIFT2")
	require.NotNil(t, coupon)
	require.Len(t, cart.Adjustments, 1)
	require.NotNil(t, cart.Adjustments[0].CouponItemID)

	f.run(t, cart, []effectdomain.Effect{accept, grant, grant})

	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.Equal(t, int64(2), adj.FreeItemQty)
	assert.Equal(t, int64(-3000), adj.Amount)
	require.NotNil(t, adj.CouponItemID)
	assert.Equal(t, coupon.ID, *adj.CouponItemID)
}

func TestReconcileFreeItemRejectedEchoNotRegranted(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetRejectedFreeItemSKUs([]string{"sku-gift"})

	effects := []effectdomain.Effect{
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-gift"}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	assert.Nil(t, got.LineItemBySKU("sku-gift"))
	assert.Equal(t, []string{"sku-gift"}, got.RejectedFreeItemSKUs())
}

func TestReconcileFreeItemUnavailable(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	effects := []effectdomain.Effect{
		{CampaignID: 40, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-oos"}},
	}
	outcome := f.run(t, cart, effects)
	assert.True(t, outcome.FreeItemUnavailable)

	got := f.reload(t, cart.ID)
	assert.Nil(t, got.LineItemBySKU("sku-oos"))

	flagged, err := f.sessions.ConsumeFreeItemUnavailable(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestReconcileAcceptedCouponLinksDiscount(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetAppliedCouponCodes([]string{"SAVE10"})

	effects := []effectdomain.Effect{
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectAcceptCoupon, Props: effectdomain.EffectProps{Code: "SAVE10"}},
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, RuleName: "coupon rule", EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 10.00}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	coupon := got.CouponByCode("SAVE10")
	require.NotNil(t, coupon)

	require.Len(t, got.Adjustments, 1)
	adj := got.Adjustments[0]
	assert.Equal(t, "9_30_77", adj.Tag)
	require.NotNil(t, adj.CouponItemID)
	assert.Equal(t, coupon.ID, *adj.CouponItemID)
	assert.Equal(t, []string{"SAVE10"}, got.AppliedCouponCodes())
}

func TestReconcileRejectedCouponRemoved(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetAppliedCouponCodes([]string{"EXPIRED"})

	effects := []effectdomain.Effect{
		{CampaignID: 30, EffectType: effectdomain.EffectRejectCoupon, Props: effectdomain.EffectProps{Code: "EXPIRED", RejectionReason: "CouponExpired"}},
	}
	outcome := f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	assert.Empty(t, got.AppliedCouponCodes())
	assert.Nil(t, got.CouponByCode("EXPIRED"))
	require.Contains(t, outcome.Classified.RejectedCoupons, "EXPIRED")
}

func TestReconcileCouponRetainedWithoutExplicitRejection(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetAppliedCouponCodes([]string{"SAVE10"})

	accept := []effectdomain.Effect{
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectAcceptCoupon, Props: effectdomain.EffectProps{Code: "SAVE10"}},
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 10.00}},
	}
	f.run(t, cart, accept)
	cart = f.reload(t, cart.ID)
	require.NotNil(t, cart.CouponByCode("SAVE10"))

	// An evaluation that says nothing about the coupon drops its discount
	// but keeps the coupon itself; only rejectCoupon removes it.
	f.run(t, cart, nil)
	got := f.reload(t, cart.ID)
	require.NotNil(t, got.CouponByCode("SAVE10"))
	assert.Equal(t, []string{"SAVE10"}, got.AppliedCouponCodes())
	assert.Empty(t, got.Adjustments)
}

func TestReconcileRejectedCouponAfterAcceptanceRemovesLineItem(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.SetAppliedCouponCodes([]string{"SAVE10"})

	accept := []effectdomain.Effect{
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectAcceptCoupon, Props: effectdomain.EffectProps{Code: "SAVE10"}},
	}
	f.run(t, cart, accept)
	cart = f.reload(t, cart.ID)
	require.NotNil(t, cart.CouponByCode("SAVE10"))

	reject := []effectdomain.Effect{
		{CampaignID: 30, EffectType: effectdomain.EffectRejectCoupon, Props: effectdomain.EffectProps{Code: "SAVE10", RejectionReason: "CouponExpired"}},
	}
	f.run(t, cart, reject)
	got := f.reload(t, cart.ID)
	assert.Nil(t, got.CouponByCode("SAVE10"))
	assert.Empty(t, got.AppliedCouponCodes())
}

func TestReconcileRejectedReferralCleared(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.ReferralCode = "FRIEND-1"

	effects := []effectdomain.Effect{
		{EffectType: effectdomain.EffectRejectReferral, Props: effectdomain.EffectProps{Code: "FRIEND-1", RejectionReason: "ReferralRecipientIdSameAsAdvocate"}},
	}
	outcome := f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	assert.Empty(t, got.ReferralCode)
	require.NotNil(t, outcome.Classified.RejectedReferral)
}

func TestReconcileRejectedReferralOtherCodeRetained(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	cart.ReferralCode = "FRIEND-1"

	effects := []effectdomain.Effect{
		{EffectType: effectdomain.EffectRejectReferral, Props: effectdomain.EffectProps{Code: "FRIEND-2", RejectionReason: "ReferralNotFound"}},
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	assert.Equal(t, "FRIEND-1", got.ReferralCode)
}

func TestReconcileLoyaltyNetStored(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)
	ctx := context.Background()

	effects := []effectdomain.Effect{
		{EffectType: effectdomain.EffectAddLoyaltyPoints, Props: effectdomain.EffectProps{Value: 120}},
		{EffectType: effectdomain.EffectDeductLoyaltyPoints, Props: effectdomain.EffectProps{Value: 20}},
	}
	f.run(t, cart, effects)

	points, ok, err := f.sessions.LoyaltyNet(ctx, cart.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100, points, 1e-9)

	f.run(t, f.reload(t, cart.ID), nil)
	_, ok, err = f.sessions.LoyaltyNet(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReconcileDuplicateKeysSummed(t *testing.T) {
	f := newFixture(t)
	cart := f.newCart(t)

	effects := []effectdomain.Effect{
		orderDiscount(10, 5, 3.00),
		orderDiscount(10, 5, 1.50),
	}
	f.run(t, cart, effects)

	got := f.reload(t, cart.ID)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, int64(-450), got.Adjustments[0].Amount)
}
