package buildcache

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"buildcache",
		logger.WithNamedLogger("buildcache"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
	)
}
