package badgerfx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	gcInterval     = 10 * time.Minute
	gcDiscardRatio = 0.5
)

func Module() fx.Option {
	return fx.Module(
		"badgerfx",
		logger.WithNamedLogger("badgerfx"),
		fx.Provide(New),
		fx.Invoke(func(db *badger.DB, logger *zap.Logger, lifecycle fx.Lifecycle) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("starting badger module",
						zap.String("dir", db.Opts().Dir),
						zap.Bool("in_memory", db.Opts().InMemory),
					)
					go collectGarbage(ctx, db, logger, done)
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("stopping badger module")
					cancel()
					<-done
					if err := db.Close(); err != nil {
						return fmt.Errorf("failed to close BadgerDB: %w", err)
					}
					return nil
				},
			})
		}),
	)
}

// collectGarbage reclaims value log space left by expired and deleted
// entries until ctx is done.
func collectGarbage(ctx context.Context, db *badger.DB, logger *zap.Logger, done chan<- struct{}) {
	defer close(done)

	if db.Opts().InMemory {
		return
	}

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := db.RunValueLogGC(gcDiscardRatio)
				if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
					break
				}
				if err != nil {
					logger.Warn("value log gc failed", zap.Error(err))
					break
				}
			}
		}
	}
}
