package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

func TestSetupStdout(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var out bytes.Buffer
	config := DefaultConfig()
	config.ExporterType = "stdout"
	config.Output = &out

	tel, err := Setup(context.Background(), config)
	require.NoError(t, err)
	require.NotNil(t, tel.Metrics)
	assert.False(t, tel.Registry.IsNoop())

	ctx, obs := observation.Start(context.Background(), tel.Registry, nil,
		observation.SendContext{Topic: "orders", ClientID: "producer-1", Partition: -1})
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	obs.Stop()

	require.NoError(t, tel.Shutdown(context.Background()))

	assert.Contains(t, out.String(), `"Name": "orders send"`)
	assert.Contains(t, out.String(), "senderctl")
	assert.NotEmpty(t, carrier.Get("traceparent"))
	count, err := testutil.GatherAndCount(tel.Metrics, "kafka_sender_sends_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetupWithoutExporterOrMetrics(t *testing.T) {
	tel, err := Setup(context.Background(), Config{ServiceName: "test", ExporterType: "none", SamplingRate: 0})
	require.NoError(t, err)
	assert.Nil(t, tel.Metrics)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{ExporterType: "jaeger"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "AlwaysOff")
	assert.Contains(t, sampler(1).Description(), "AlwaysOn")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}
