package cart

import (
	"github.com/smallbiznis/promosync/internal/cart/repository"
	"github.com/smallbiznis/promosync/internal/cart/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
