package producer

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/sender"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

type event struct {
	ID string `json:"id"`
}

func TestNewSettings(t *testing.T) {
	scheduler := sender.NewWorkerScheduler(sender.WorkerConfig{Name: "results", Workers: 1}, nil)
	defer func() { _ = scheduler.Close(context.Background()) }()

	opts := sender.NewOptionsFromMap[string, event](map[string]any{
		sender.BootstrapServersConfig:     "broker-1:9092,broker-2:9092",
		sender.ClientIDConfig:             "orders",
		sender.KeySerializerClassConfig:   "org.apache.kafka.common.serialization.StringSerializer",
		sender.ValueSerializerClassConfig: "json",
	}).WithMaxInFlight(32).WithStopOnError(false).WithCloseTimeout(time.Minute)
	opts, err := opts.WithScheduler(scheduler)
	require.NoError(t, err)

	s, err := NewSettings(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, s.Brokers)
	assert.Equal(t, "orders", s.Sarama.ClientID)
	assert.Equal(t, 32, s.Sarama.ChannelBufferSize)
	assert.Equal(t, sender.StringSerializer{}, s.KeySerializer)
	assert.Equal(t, sender.JSONSerializer[event]{}, s.ValueSerializer)
	assert.Same(t, scheduler, s.Scheduler)
	assert.False(t, s.StopOnError)
	assert.Equal(t, time.Minute, s.CloseTimeout)
	assert.True(t, s.Registry.IsNoop())
	assert.Equal(t, observation.DefaultConvention, s.Convention)
}

func TestNewSettingsPrefersExplicitSerializers(t *testing.T) {
	valueSer := sender.SerializerFunc[event](func(string, event) ([]byte, error) { return []byte("x"), nil })
	opts, err := sender.NewOptionsFromMap[string, event](map[string]any{
		sender.BootstrapServersConfig:     "localhost:9092",
		sender.KeySerializerClassConfig:   "string",
		sender.ValueSerializerClassConfig: "com.example.Unknown",
	}).WithValueSerializer(valueSer)
	require.NoError(t, err)

	s, err := NewSettings(opts)
	require.NoError(t, err)
	out, err := s.ValueSerializer.Serialize("t", event{})
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)
}

func TestNewSettingsErrors(t *testing.T) {
	base := map[string]any{
		sender.BootstrapServersConfig:     "localhost:9092",
		sender.KeySerializerClassConfig:   "string",
		sender.ValueSerializerClassConfig: "bytes",
	}
	with := func(key string, value any) map[string]any {
		props := maps.Clone(base)
		if value == nil {
			delete(props, key)
		} else {
			props[key] = value
		}
		return props
	}

	tests := []struct {
		name string
		opts *sender.Options[string, []byte]
	}{
		{name: "no brokers", opts: sender.NewOptionsFromMap[string, []byte](with(sender.BootstrapServersConfig, nil))},
		{name: "no key serializer", opts: sender.NewOptionsFromMap[string, []byte](with(sender.KeySerializerClassConfig, nil))},
		{name: "value serializer mismatch", opts: sender.NewOptionsFromMap[string, []byte](with(sender.ValueSerializerClassConfig, "string"))},
		{name: "zero in flight", opts: sender.NewOptionsFromMap[string, []byte](base).WithMaxInFlight(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSettings(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "got %v", err)
		})
	}
}
