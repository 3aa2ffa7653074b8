package gitstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opLocate       = "locate"
	opConfig       = "config"
	opIgnored      = "ignored"
	opStatus       = "status"
	opIsDirty      = "is_dirty"
	opBranch       = "branch"
	opRevision     = "revision"
	opOrigin       = "origin"
	opRepository   = "repository"
	opState        = "state"
	resultOK       = "ok"
	resultNotFound = "not_repository"
	resultError    = "error"
)

// Metrics counts engine queries per backend, operation and outcome.
type Metrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitstate",
			Name:      "queries_total",
			Help:      "Number of workspace state queries.",
		}, []string{"backend", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitstate",
			Name:      "query_duration_seconds",
			Help:      "Duration of workspace state queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}
}

// Register adds the collectors to reg. When equivalent collectors are
// already registered, m records into those instead.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.queries); err != nil {
		existing, alreadyErr := alreadyRegistered[*prometheus.CounterVec](err)
		if alreadyErr != nil {
			return alreadyErr
		}
		m.queries = existing
	}

	if err := reg.Register(m.duration); err != nil {
		existing, alreadyErr := alreadyRegistered[*prometheus.HistogramVec](err)
		if alreadyErr != nil {
			return alreadyErr
		}
		m.duration = existing
	}

	return nil
}

func alreadyRegistered[T prometheus.Collector](err error) (T, error) {
	var zero T

	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return zero, err
	}

	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return zero, fmt.Errorf("collector registered with a different type: %w", err)
	}

	return existing, nil
}

func (m *Metrics) observe(backend, operation string, elapsed time.Duration, err error) {
	result := resultOK
	switch {
	case errors.Is(err, ErrNotRepository):
		result = resultNotFound
	case err != nil:
		result = resultError
	}

	m.queries.WithLabelValues(backend, operation, result).Inc()
	m.duration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}
