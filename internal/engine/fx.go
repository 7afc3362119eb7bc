package engine

import (
	"github.com/smallbiznis/promosync/internal/engine/service"
	"go.uber.org/fx"
)

var Module = fx.Module("engine.client",
	fx.Provide(service.NewClient),
)
