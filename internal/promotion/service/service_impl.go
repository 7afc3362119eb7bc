package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"github.com/smallbiznis/promosync/internal/config"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
	promotiondomain "github.com/smallbiznis/promosync/internal/promotion/domain"
	reconciledomain "github.com/smallbiznis/promosync/internal/reconcile/domain"
	"github.com/smallbiznis/promosync/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	metrics *metrics.Metrics

	carts      cartdomain.Service
	engine     enginedomain.Evaluator
	reconciler reconciledomain.Reconciler
	sessions   session.Store
	messages   *config.MessageCatalogHolder
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Metrics *metrics.Metrics

	Carts      cartdomain.Service
	Engine     enginedomain.Evaluator
	Reconciler reconciledomain.Reconciler
	Sessions   session.Store
	Messages   *config.MessageCatalogHolder
}

func NewService(p ServiceParam) promotiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("promotion.service"),
		cfg:     p.Cfg,
		metrics: p.Metrics,

		carts:      p.Carts,
		engine:     p.Engine,
		reconciler: p.Reconciler,
		sessions:   p.Sessions,
		messages:   p.Messages,
	}
}

func (s *Service) Refresh(ctx context.Context, cartID snowflake.ID) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

func (s *Service) AddItem(ctx context.Context, cartID snowflake.ID, sku string, qty int64) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.AddLineItem(ctx, s.db, cart, sku, qty); err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, lineItemID snowflake.ID, qty int64) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.UpdateLineItemQuantity(ctx, s.db, cart, lineItemID, qty); err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

// RemoveItem removes the line from the cart. When the line carried an
// engine-granted free item, the SKU is recorded so the evaluation does not
// grant it right back.
func (s *Service) RemoveItem(ctx context.Context, cartID, lineItemID snowflake.ID) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if line := cart.LineItemByID(lineItemID); line != nil && line.HasFreeItem {
		s.recordRejectedFreeItem(cart, line.SKU)
	}
	if err := s.carts.RemoveLineItem(ctx, s.db, cart, lineItemID); err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

func (s *Service) AddCoupon(ctx context.Context, cartID snowflake.ID, code string) (*promotiondomain.Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, promotiondomain.ErrInvalidCode
	}
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	applied := cart.AppliedCouponCodes()
	for _, existing := range applied {
		if strings.EqualFold(existing, code) {
			return nil, promotiondomain.ErrCouponAlreadyApplied
		}
	}
	cart.SetAppliedCouponCodes(append(applied, code))

	result, err := s.refresh(ctx, cart, enginedomain.SessionStateOpen)
	if err != nil {
		return nil, err
	}
	if _, ok := result.Outcome.Classified.AcceptedCoupons[code]; ok {
		result.Messages = append(result.Messages, s.messages.Current().CouponApplied)
	}
	return result, nil
}

func (s *Service) RemoveCoupon(ctx context.Context, cartID snowflake.ID, code string) (*promotiondomain.Result, error) {
	code = strings.TrimSpace(code)
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	applied := cart.AppliedCouponCodes()
	remaining := applied[:0]
	for _, existing := range applied {
		if !strings.EqualFold(existing, code) {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == len(applied) {
		return nil, promotiondomain.ErrCouponNotApplied
	}
	cart.SetAppliedCouponCodes(remaining)

	// The next evaluation drops the coupon's effects; reconciliation then
	// removes its discounts and revokes any free items it triggered.
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

func (s *Service) AddReferral(ctx context.Context, cartID snowflake.ID, code string) (*promotiondomain.Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, promotiondomain.ErrInvalidCode
	}
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.ReferralCode != "" {
		return nil, promotiondomain.ErrReferralInUse
	}
	cart.ReferralCode = code

	result, err := s.refresh(ctx, cart, enginedomain.SessionStateOpen)
	if err != nil {
		return nil, err
	}
	if accepted := result.Outcome.Classified.AcceptedReferral; accepted != nil {
		msg := s.messages.Current().ReferralApplied
		if accepted.RuleName != "" {
			msg = fmt.Sprintf("%s (%s)", msg, accepted.RuleName)
		}
		result.Messages = append(result.Messages, msg)
	}
	return result, nil
}

func (s *Service) RemoveReferral(ctx context.Context, cartID snowflake.ID) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.ReferralCode == "" {
		return nil, promotiondomain.ErrReferralNotApplied
	}
	cart.ReferralCode = ""
	return s.refresh(ctx, cart, enginedomain.SessionStateOpen)
}

func (s *Service) CloseSession(ctx context.Context, cartID snowflake.ID) (*promotiondomain.Result, error) {
	cart, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	result, err := s.refresh(ctx, cart, enginedomain.SessionStateClosed)
	if err != nil {
		return nil, err
	}

	cart.Status = cartdomain.CartStatusOrdered
	if err := s.db.WithContext(ctx).Model(&cartdomain.Cart{}).
		Where("id = ?", cart.ID).
		Update("status", cartdomain.CartStatusOrdered).Error; err != nil {
		return nil, err
	}

	// The cart row keeps the session and profile identifiers for the placed
	// order; the transient per-cart state is no longer needed.
	if err := s.sessions.ClearLoyaltyNet(ctx, cart.ID); err != nil {
		s.log.Warn("clearing loyalty state failed", zap.Error(err))
	}
	return result, nil
}

func (s *Service) LoyaltySummary(ctx context.Context, cartID snowflake.ID) (float64, bool, error) {
	if !s.cfg.LoyaltyEnabled {
		return 0, false, nil
	}
	return s.sessions.LoyaltyNet(ctx, cartID)
}

func (s *Service) openCart(ctx context.Context, cartID snowflake.ID) (*cartdomain.Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != cartdomain.CartStatusOpen {
		return nil, cartdomain.ErrCartClosed
	}
	return cart, nil
}

func (s *Service) recordRejectedFreeItem(cart *cartdomain.Cart, sku string) {
	skus := cart.RejectedFreeItemSKUs()
	for _, existing := range skus {
		if existing == sku {
			return
		}
	}
	cart.SetRejectedFreeItemSKUs(append(skus, sku))
}

// refresh evaluates the cart against the engine and reconciles the effects,
// collecting the shopper-facing notices for this pass.
func (s *Service) refresh(ctx context.Context, cart *cartdomain.Cart, state string) (*promotiondomain.Result, error) {
	start := time.Now()

	resp, snapshot, err := s.engine.Evaluate(ctx, cart, state)
	if err != nil {
		s.metrics.EvaluationsTotal.WithLabelValues("engine_error").Inc()
		s.log.Error("engine evaluation failed",
			zap.Int64("cart_id", int64(cart.ID)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", promotiondomain.ErrEngineUnavailable, err)
	}

	outcome, err := s.reconciler.Reconcile(ctx, cart, resp.Effects, snapshot)
	if err != nil {
		s.metrics.EvaluationsTotal.WithLabelValues("reconcile_error").Inc()
		return nil, err
	}
	s.metrics.EvaluationsTotal.WithLabelValues("ok").Inc()
	s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	return &promotiondomain.Result{
		Cart:     cart,
		Messages: s.collectMessages(ctx, cart, outcome),
		Outcome:  outcome,
	}, nil
}

func (s *Service) collectMessages(ctx context.Context, cart *cartdomain.Cart, outcome *reconciledomain.Outcome) []string {
	catalog := s.messages.Current()
	var messages []string

	codes := make([]string, 0, len(outcome.Classified.RejectedCoupons))
	for code := range outcome.Classified.RejectedCoupons {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		messages = append(messages, catalog.ForReason(outcome.Classified.RejectedCoupons[code].Reason))
	}

	if rejected := outcome.Classified.RejectedReferral; rejected != nil {
		messages = append(messages, catalog.ForReason(rejected.Reason))
	}

	flagged, err := s.sessions.ConsumeFreeItemUnavailable(ctx, cart.ID)
	if err != nil {
		s.log.Warn("reading free item availability flag failed", zap.Error(err))
	}
	if flagged {
		messages = append(messages, catalog.FreeItemUnavailable)
	}

	return messages
}
