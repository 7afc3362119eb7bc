package effect

import (
	"github.com/smallbiznis/promosync/internal/effect/service"
	"go.uber.org/fx"
)

var Module = fx.Module("effect.service",
	fx.Provide(service.NewClassifier),
)
