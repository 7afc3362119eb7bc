package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClassifier(t *testing.T) effectdomain.Classifier {
	t.Helper()
	return NewClassifier(ClassifierParam{
		Log:     zap.NewNop(),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
}

func TestClassifyEmpty(t *testing.T) {
	out := newClassifier(t).Classify(nil)
	require.NotNil(t, out)
	assert.Empty(t, out.Order)
	assert.Empty(t, out.Product)
	assert.Empty(t, out.Shipping)
	assert.Empty(t, out.FreeItems)
	assert.Nil(t, out.RejectedReferral)
	assert.Zero(t, out.LoyaltyNet)
}

func TestClassifyOrderDiscountSumsDuplicateKeys(t *testing.T) {
	effects := []effectdomain.Effect{
		{CampaignID: 10, RulesetID: 5, RuleName: "first", EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 3.00}},
		{CampaignID: 10, RulesetID: 5, RuleName: "second", EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 1.50}},
		{CampaignID: 11, RulesetID: 5, EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 2.00}},
	}

	out := newClassifier(t).Classify(effects)
	require.Len(t, out.Order, 2)

	d := out.Order["5_10"]
	require.NotNil(t, d)
	assert.Equal(t, int64(450), d.Discount)
	assert.Equal(t, "first", d.RuleName)

	assert.Equal(t, int64(200), out.Order["5_11"].Discount)
}

func TestClassifyProductDiscountGroupsByPosition(t *testing.T) {
	effects := []effectdomain.Effect{
		{CampaignID: 20, RulesetID: 7, EffectType: effectdomain.EffectSetDiscountPerItem, Props: effectdomain.EffectProps{Value: 1.00, Position: 1}},
		{CampaignID: 20, RulesetID: 7, EffectType: effectdomain.EffectSetDiscountPerItem, Props: effectdomain.EffectProps{Value: 1.00, Position: 1}},
		{CampaignID: 20, RulesetID: 7, EffectType: effectdomain.EffectSetDiscountPerItem, Props: effectdomain.EffectProps{Value: 5.00, Position: 2}},
	}

	out := newClassifier(t).Classify(effects)
	require.Len(t, out.Product, 2)

	first := out.ProductDetails(1)
	require.Len(t, first, 1)
	assert.Equal(t, int64(200), first["1_20"].Discount)

	second := out.ProductDetails(2)
	require.Len(t, second, 1)
	assert.Equal(t, int64(500), second["2_20"].Discount)

	assert.Nil(t, out.ProductDetails(3))
}

func TestClassifyCouponTriggeredDiscountCarriesCode(t *testing.T) {
	effects := []effectdomain.Effect{
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectAcceptCoupon, Props: effectdomain.EffectProps{Code: "SAVE10"}},
		{CampaignID: 30, RulesetID: 9, TriggeredByCoupon: 77, EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 10.00}},
	}

	out := newClassifier(t).Classify(effects)

	require.Contains(t, out.AcceptedCoupons, "SAVE10")
	d := out.Order["9_30_77"]
	require.NotNil(t, d)
	assert.Equal(t, int64(1000), d.Discount)
	assert.Equal(t, "SAVE10", d.CouponCode)
	assert.Equal(t, int64(77), d.TriggeredBy)
}

func TestClassifyFreeItemQuantityAccumulates(t *testing.T) {
	effects := []effectdomain.Effect{
		{CampaignID: 40, RuleName: "bogo", EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-a"}},
		{CampaignID: 40, RuleName: "bogo", EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-a"}},
		{CampaignID: 41, EffectType: effectdomain.EffectAddFreeItem, Props: effectdomain.EffectProps{SKU: "sku-b"}},
	}

	out := newClassifier(t).Classify(effects)
	require.Len(t, out.FreeItems, 2)
	assert.Equal(t, int64(2), out.FreeItems["sku-a"].Qty)
	assert.Equal(t, "bogo", out.FreeItems["sku-a"].RuleName)
	assert.Equal(t, int64(1), out.FreeItems["sku-b"].Qty)
}

func TestClassifyRejections(t *testing.T) {
	effects := []effectdomain.Effect{
		{CampaignID: 50, EffectType: effectdomain.EffectRejectCoupon, Props: effectdomain.EffectProps{Code: "EXPIRED", RejectionReason: "CouponExpired"}},
		{CampaignID: 51, RuleName: "friends", EffectType: effectdomain.EffectRejectReferral, Props: effectdomain.EffectProps{Code: "FRIEND-1", RejectionReason: "ReferralRecipientIdSameAsAdvocate"}},
	}

	out := newClassifier(t).Classify(effects)

	rc := out.RejectedCoupons["EXPIRED"]
	require.NotNil(t, rc)
	assert.Equal(t, "CouponExpired", rc.Reason)

	require.NotNil(t, out.RejectedReferral)
	assert.Equal(t, "FRIEND-1", out.RejectedReferral.Code)
	assert.Equal(t, "ReferralRecipientIdSameAsAdvocate", out.RejectedReferral.Reason)
}

func TestClassifyLoyaltyNet(t *testing.T) {
	effects := []effectdomain.Effect{
		{EffectType: effectdomain.EffectAddLoyaltyPoints, Props: effectdomain.EffectProps{Value: 120}},
		{EffectType: effectdomain.EffectAddLoyaltyPoints, Props: effectdomain.EffectProps{Value: 30}},
		{EffectType: effectdomain.EffectDeductLoyaltyPoints, Props: effectdomain.EffectProps{Value: 50}},
	}

	out := newClassifier(t).Classify(effects)
	assert.InDelta(t, 100, out.LoyaltyNet, 1e-9)
}

func TestClassifyUnknownEffectSkipped(t *testing.T) {
	effects := []effectdomain.Effect{
		{EffectType: effectdomain.EffectType("somethingNew"), Props: effectdomain.EffectProps{Value: 9.99}},
		{CampaignID: 10, RulesetID: 5, EffectType: effectdomain.EffectSetDiscount, Props: effectdomain.EffectProps{Value: 1.00}},
	}

	out := newClassifier(t).Classify(effects)
	require.Len(t, out.Order, 1)
	assert.Equal(t, int64(100), out.Order["5_10"].Discount)
}

func TestAdjustmentKeyEncoding(t *testing.T) {
	order := effectdomain.OrderKey(effectdomain.Effect{RulesetID: 5, CampaignID: 10})
	assert.Equal(t, "5_10", order.Encode())

	withCoupon := effectdomain.OrderKey(effectdomain.Effect{RulesetID: 5, CampaignID: 10, TriggeredByCoupon: 3})
	assert.Equal(t, "5_10_3", withCoupon.Encode())

	product := effectdomain.ProductKey(effectdomain.Effect{CampaignID: 10, Props: effectdomain.EffectProps{Position: 2}})
	assert.Equal(t, "2_10", product.Encode())
}
