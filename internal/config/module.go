package config

import (
	"github.com/apiarycd/gitstate/internal/buildcache"
	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/apiarycd/gitstate/internal/watch"
	"github.com/apiarycd/gitstate/pkg/badgerfx"
	"github.com/go-core-fx/fiberfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:      cfg.Storage.DataDir,
				InMemory: cfg.Storage.InMemory,
			}
		}),
		fx.Provide(func(cfg Config) gitstate.Config {
			return gitstate.Config{
				Backend:  cfg.Git.Backend,
				Binary:   cfg.Git.Binary,
				UserHome: cfg.Git.UserHome,
			}
		}),
		fx.Provide(func(cfg Config) buildcache.Config {
			return buildcache.Config{
				TTL: cfg.Cache.TTL,
			}
		}),
		fx.Provide(func(cfg Config) watch.Config {
			return watch.Config{
				Debounce: cfg.Watch.Debounce,
			}
		}),
	)
}
