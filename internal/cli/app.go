package cli

import (
	"context"
	"fmt"

	"github.com/apiarycd/gitstate/internal/config"
	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/go-core-fx/logger"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	version string

	dir     string
	home    string
	backend string
	json    bool
	verbose bool
}

func (g *globals) logging() fx.Option {
	if g.verbose {
		return fx.Options(
			logger.Module(),
			logger.WithFxDefaultLogger(),
		)
	}

	return fx.Options(
		fx.NopLogger,
		fx.Provide(zap.NewNop),
	)
}

// overrides applies command line flags on top of the loaded configuration.
func (g *globals) overrides() fx.Option {
	return fx.Decorate(func(cfg gitstate.Config) gitstate.Config {
		if g.backend != "" {
			cfg.Backend = g.backend
		}
		if g.home != "" {
			cfg.UserHome = g.home
		}
		return cfg
	})
}

// run builds a short-lived application from modules, resolves T from it and
// calls fn between start and stop.
func run[T any](cmd *cobra.Command, g *globals, fn func(ctx context.Context, target T) error, modules ...fx.Option) error {
	var target T

	app := fx.New(
		g.logging(),
		config.Module(),
		gitstate.Module(),
		fx.Options(modules...),
		g.overrides(),
		fx.Populate(&target),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		_ = app.Stop(context.WithoutCancel(ctx))
	}()

	return fn(ctx, target)
}

// query runs fn against the state engine.
func query(cmd *cobra.Command, g *globals, fn func(ctx context.Context, svc *gitstate.Service) error) error {
	return run(cmd, g, fn)
}
