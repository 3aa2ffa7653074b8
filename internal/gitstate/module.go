package gitstate

import (
	"github.com/go-core-fx/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"gitstate",
		logger.WithNamedLogger("gitstate"),
		fx.Provide(NewBackend),
		fx.Provide(NewMetrics),
		fx.Provide(NewService),
		fx.Invoke(func(m *Metrics) error {
			return m.Register(prometheus.DefaultRegisterer)
		}),
	)
}
