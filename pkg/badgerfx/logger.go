package badgerfx

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// zapLogger adapts badger's printf logging to zap. Badger terminates its
// messages with a newline, which is dropped.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newLogger(l *zap.Logger) *zapLogger {
	return &zapLogger{
		sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func (l *zapLogger) Debugf(format string, a ...any) {
	l.sugar.Debugf(strings.TrimSuffix(format, "\n"), a...)
}

func (l *zapLogger) Errorf(format string, a ...any) {
	l.sugar.Errorf(strings.TrimSuffix(format, "\n"), a...)
}

// Infof logs at debug level; badger reports routine compaction and replay at info.
func (l *zapLogger) Infof(format string, a ...any) {
	l.sugar.Debugf(strings.TrimSuffix(format, "\n"), a...)
}

func (l *zapLogger) Warningf(format string, a ...any) {
	l.sugar.Warnf(strings.TrimSuffix(format, "\n"), a...)
}

var _ badger.Logger = (*zapLogger)(nil)
