package watch

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"watch",
		logger.WithNamedLogger("watch"),
		fx.Provide(NewWatcher),
	)
}
