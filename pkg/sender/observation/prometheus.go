package observation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistry counts sends and records their duration. Metrics are
// labelled by observation name, topic, client id and status.
type PrometheusRegistry struct {
	sends    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var promLabels = []string{"name", "topic", "client_id", "status"}

// NewPrometheusRegistry registers the sender metrics with reg (the default
// registerer when nil) under namespace. Registering twice against the same
// registerer reuses the collectors already present.
func NewPrometheusRegistry(reg prometheus.Registerer, namespace string) (*PrometheusRegistry, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	sends := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "sends_total",
			Help:      "Total number of records sent",
		},
		promLabels,
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "send_duration_seconds",
			Help:      "Duration of send operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		promLabels,
	)

	var err error
	if sends, err = registerCounter(reg, sends); err != nil {
		return nil, err
	}
	if duration, err = registerHistogram(reg, duration); err != nil {
		return nil, err
	}

	return &PrometheusRegistry{sends: sends, duration: duration}, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return h, nil
}

// Start implements Registry.
func (r *PrometheusRegistry) Start(ctx context.Context, sc SendContext, conv Convention) (context.Context, Observation) {
	return ctx, &promObservation{
		registry: r,
		name:     conv.Name(),
		sc:       sc,
		start:    time.Now(),
	}
}

// IsNoop implements Registry.
func (r *PrometheusRegistry) IsNoop() bool { return false }

type promObservation struct {
	registry *PrometheusRegistry
	name     string
	sc       SendContext
	start    time.Time

	mu     sync.Mutex
	failed bool
	once   sync.Once
}

func (o *promObservation) Error(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	o.failed = true
	o.mu.Unlock()
}

func (o *promObservation) Stop() {
	o.once.Do(func() {
		o.mu.Lock()
		status := "success"
		if o.failed {
			status = "error"
		}
		o.mu.Unlock()

		labels := prometheus.Labels{
			"name":      o.name,
			"topic":     o.sc.Topic,
			"client_id": o.sc.ClientID,
			"status":    status,
		}
		o.registry.sends.With(labels).Inc()
		o.registry.duration.With(labels).Observe(time.Since(o.start).Seconds())
	})
}
