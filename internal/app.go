package internal

import (
	"context"

	"github.com/apiarycd/gitstate/internal/buildcache"
	"github.com/apiarycd/gitstate/internal/config"
	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/apiarycd/gitstate/internal/server"
	"github.com/apiarycd/gitstate/pkg/badgerfx"
	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Run starts the state API server and blocks until it is signalled to stop.
// Extra options may decorate configuration.
func Run(version string, options ...fx.Option) {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		server.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: version, ReleaseID: 1} }),
		gitstate.Module(),
		buildcache.Module(),
		//
		fx.Options(options...),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("🚀 gitstate server starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("🛑 gitstate server shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}
