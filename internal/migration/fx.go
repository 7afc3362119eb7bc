package migration

import (
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module migrates the schema on startup so the service is usable out of the
// box on any of the supported dialects.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		return conn.AutoMigrate(
			&catalogdomain.Product{},
			&cartdomain.Cart{},
			&cartdomain.LineItem{},
			&cartdomain.ShippingLineItem{},
			&cartdomain.CouponLineItem{},
			&cartdomain.PriceAdjustment{},
		)
	}),
)
