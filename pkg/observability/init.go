// Package observability wires process level telemetry for sender tools: an
// OpenTelemetry tracer provider, the global propagators and a Prometheus
// registry, combined into one observation.Registry for sender options.
package observability

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

// Config contains telemetry configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// SamplingRate is the fraction of traces kept, from 0 to 1.
	SamplingRate float64
	// ExporterType is "stdout" or "none".
	ExporterType string
	// Output receives stdout exporter spans. Defaults to os.Stdout.
	Output io.Writer
	// Namespace prefixes Prometheus metric names. Empty disables metrics.
	Namespace string
}

// DefaultConfig returns a configuration that exports every span to stdout
// and keeps Prometheus metrics under the "kafka" namespace.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "senderctl",
		ServiceVersion: "dev",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   1,
		ExporterType:   getEnv("TRACING_EXPORTER", "stdout"),
		Namespace:      "kafka",
	}
}

// Telemetry holds the providers created by Setup.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	Metrics        *prometheus.Registry
	// Registry observes sends through every configured backend.
	Registry observation.Registry
}

// Setup builds the tracer provider and Prometheus registry described by
// config and installs the trace context and baggage propagators globally.
// The tracer provider is not installed globally.
func Setup(ctx context.Context, config Config) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create resource")
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SamplingRate)),
	}
	switch config.ExporterType {
	case "", "none":
	case "stdout":
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create stdout exporter")
		}
		opts = append(opts, sdktrace.WithSyncer(exporter))
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported trace exporter %q", config.ExporterType)
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Telemetry{TracerProvider: tp}
	registries := []observation.Registry{observation.NewOTelRegistry(tp, otel.GetMeterProvider())}
	if config.Namespace != "" {
		t.Metrics = prometheus.NewRegistry()
		prom, err := observation.NewPrometheusRegistry(t.Metrics, config.Namespace)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, err
		}
		registries = append(registries, prom)
	}
	t.Registry = observation.Compose(registries...)

	logger.Debug("telemetry initialized",
		zap.String("service", config.ServiceName),
		zap.String("exporter", config.ExporterType),
		zap.Float64("sampling_rate", config.SamplingRate))
	return t, nil
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to shutdown tracer")
	}
	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// getEnv gets environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
