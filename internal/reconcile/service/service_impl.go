package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/smallbiznis/promosync/internal/config"
	effectdomain "github.com/smallbiznis/promosync/internal/effect/domain"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
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

	genID      *snowflake.Node
	classifier effectdomain.Classifier
	carts      cartdomain.Service
	catalog    catalogdomain.Service
	sessions   session.Store
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Metrics *metrics.Metrics

	GenID      *snowflake.Node
	Classifier effectdomain.Classifier
	Carts      cartdomain.Service
	Catalog    catalogdomain.Service
	Sessions   session.Store
}

func NewService(p ServiceParam) reconciledomain.Reconciler {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("reconcile.service"),
		cfg:     p.Cfg,
		metrics: p.Metrics,

		genID:      p.GenID,
		classifier: p.Classifier,
		carts:      p.Carts,
		catalog:    p.Catalog,
		sessions:   p.Sessions,
	}
}

// Reconcile converges the cart onto one evaluation's effects. All cart
// mutations run in a single transaction; shipping costs and totals are
// settled last so they observe the final adjustment set.
func (s *Service) Reconcile(ctx context.Context, cart *cartdomain.Cart, effects []effectdomain.Effect, snapshot *enginedomain.Snapshot) (*reconciledomain.Outcome, error) {
	classified := s.classifier.Classify(effects)
	outcome := &reconciledomain.Outcome{Classified: classified}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureAcceptedCoupons(ctx, tx, cart, classified); err != nil {
			return err
		}
		if err := s.reconcileOrder(ctx, tx, cart, classified); err != nil {
			return err
		}
		if err := s.reconcileProducts(ctx, tx, cart, classified, snapshot); err != nil {
			return err
		}
		if err := s.reconcileShipping(ctx, tx, cart, classified); err != nil {
			return err
		}

		unavailable, err := s.reconcileFreeItems(ctx, tx, cart, classified)
		if err != nil {
			return err
		}
		outcome.FreeItemUnavailable = unavailable

		if err := s.settleRejections(ctx, tx, cart, classified); err != nil {
			return err
		}
		if err := s.persistCartState(ctx, tx, cart); err != nil {
			return err
		}
		if err := s.carts.ApplyShippingCost(ctx, tx, cart); err != nil {
			return err
		}
		return s.carts.RecalculateTotals(ctx, tx, cart)
	})
	if err != nil {
		return nil, err
	}

	if outcome.FreeItemUnavailable {
		if err := s.sessions.MarkFreeItemUnavailable(ctx, cart.ID); err != nil {
			s.log.Warn("storing free item availability flag failed", zap.Error(err))
		}
	}
	if err := s.storeLoyalty(ctx, cart.ID, classified.LoyaltyNet); err != nil {
		s.log.Warn("storing loyalty balance failed", zap.Error(err))
	}

	return outcome, nil
}

func (s *Service) storeLoyalty(ctx context.Context, cartID snowflake.ID, net float64) error {
	if !s.cfg.LoyaltyEnabled {
		return nil
	}
	if net == 0 {
		return s.sessions.ClearLoyaltyNet(ctx, cartID)
	}
	return s.sessions.SetLoyaltyNet(ctx, cartID, net)
}

// persistCartState writes the scalar cart columns the pass may have touched:
// session binding, coupon code list, referral code and the rejected free
// item echo list.
func (s *Service) persistCartState(ctx context.Context, tx *gorm.DB, cart *cartdomain.Cart) error {
	return tx.WithContext(ctx).Model(&cartdomain.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"session_id":          cart.SessionID,
			"profile_id":          cart.ProfileID,
			"coupon_codes":        cart.CouponCodes,
			"referral_code":       cart.ReferralCode,
			"rejected_free_items": cart.RejectedFreeItems,
		}).Error
}

// engineAdjustments returns the engine-owned discount adjustments for one
// scope, excluding free item markers. lineItemID narrows product scope to
// one line.
func engineAdjustments(cart *cartdomain.Cart, scope cartdomain.AdjustmentScope, lineItemID *snowflake.ID) []*cartdomain.PriceAdjustment {
	var out []*cartdomain.PriceAdjustment
	for i := range cart.Adjustments {
		a := &cart.Adjustments[i]
		if a.Scope != scope || !a.IsEngineAdjustment || a.IsFreeItem {
			continue
		}
		if lineItemID != nil && (a.LineItemID == nil || *a.LineItemID != *lineItemID) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func dropAdjustments(cart *cartdomain.Cart, removed map[snowflake.ID]bool) {
	if len(removed) == 0 {
		return
	}
	kept := cart.Adjustments[:0]
	for i := range cart.Adjustments {
		if !removed[cart.Adjustments[i].ID] {
			kept = append(kept, cart.Adjustments[i])
		}
	}
	cart.Adjustments = kept
}
