package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/promosync/internal/cart"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"github.com/smallbiznis/promosync/internal/catalog"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/smallbiznis/promosync/internal/config"
	"github.com/smallbiznis/promosync/internal/effect"
	"github.com/smallbiznis/promosync/internal/engine"
	"github.com/smallbiznis/promosync/internal/metrics"
	obslogger "github.com/smallbiznis/promosync/internal/observability/logger"
	"github.com/smallbiznis/promosync/internal/promotion"
	promotiondomain "github.com/smallbiznis/promosync/internal/promotion/domain"
	"github.com/smallbiznis/promosync/internal/reconcile"
	"github.com/smallbiznis/promosync/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	metrics.Module,
	fx.Provide(registerGin),
	catalog.Module,
	cart.Module,
	effect.Module,
	session.Module,
	engine.Module,
	reconcile.Module,
	promotion.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	cartSvc      cartdomain.Service
	catalogSvc   catalogdomain.Service
	promotionSvc promotiondomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	CartSvc      cartdomain.Service
	CatalogSvc   catalogdomain.Service
	PromotionSvc promotiondomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		genID:  p.GenID,

		cartSvc:      p.CartSvc,
		catalogSvc:   p.CatalogSvc,
		promotionSvc: p.PromotionSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Carts --------
	api.POST("/carts", s.CreateCart)
	api.GET("/carts/:id", s.GetCart)
	api.POST("/carts/:id/refresh", s.RefreshCart)
	api.POST("/carts/:id/checkout", s.Checkout)

	// -------- Line items --------
	api.POST("/carts/:id/items", s.AddItem)
	api.PATCH("/carts/:id/items/:itemId", s.UpdateItemQuantity)
	api.DELETE("/carts/:id/items/:itemId", s.RemoveItem)

	// -------- Coupons / referral --------
	api.POST("/carts/:id/coupons", s.AddCoupon)
	api.DELETE("/carts/:id/coupons/:code", s.RemoveCoupon)
	api.POST("/carts/:id/referral", s.AddReferral)
	api.DELETE("/carts/:id/referral", s.RemoveReferral)

	// -------- Loyalty --------
	api.GET("/carts/:id/loyalty", s.GetLoyaltySummary)

	// -------- Catalog --------
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:sku", s.GetProductBySKU)
}
