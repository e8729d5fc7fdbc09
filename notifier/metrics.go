package notifier

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "coherence"

// Metrics holds the Prometheus collectors of a Subscriber. Every collector
// is labelled by event kind.
type Metrics struct {
	Events          *prometheus.CounterVec
	Malformed       *prometheus.CounterVec
	KeysInvalidated *prometheus.CounterVec
	DeleteErrors    *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered. Collectors already registered on reg by another
// Subscriber are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"kind"}
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Mutation events handled.",
		}, labels),
		Malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_events_total",
			Help:      "Events whose payload lacked correlation fields or failed to decode.",
		}, labels),
		KeysInvalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "keys_invalidated_total",
			Help:      "Cache keys deleted successfully.",
		}, labels),
		DeleteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "delete_errors_total",
			Help:      "Cache key deletes that failed after all attempts.",
		}, labels),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "invalidation_duration_seconds",
			Help:      "Time to invalidate every key of one event.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, labels),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.Events, err = registerCounterVec(reg, m.Events); err != nil {
		return nil, err
	}
	if m.Malformed, err = registerCounterVec(reg, m.Malformed); err != nil {
		return nil, err
	}
	if m.KeysInvalidated, err = registerCounterVec(reg, m.KeysInvalidated); err != nil {
		return nil, err
	}
	if m.DeleteErrors, err = registerCounterVec(reg, m.DeleteErrors); err != nil {
		return nil, err
	}
	if err := reg.Register(m.Duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.Duration = existing
	}
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, err
}
