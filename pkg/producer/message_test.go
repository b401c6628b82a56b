package producer

import (
	"context"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
	"github.com/ajitpratap0/sender/pkg/testutil"
)

func newTestSettings(t *testing.T, stopOnError bool, registry observation.Registry) *Settings[string, event] {
	t.Helper()
	opts := sender.NewOptionsFromMap[string, event](map[string]any{
		sender.BootstrapServersConfig:     "localhost:9092",
		sender.ClientIDConfig:             "orders",
		sender.KeySerializerClassConfig:   "string",
		sender.ValueSerializerClassConfig: "json",
	}).WithStopOnError(stopOnError)
	opts, err := opts.WithObservation(registry, nil)
	require.NoError(t, err)

	s, err := NewSettings(opts)
	require.NoError(t, err)
	return s
}

func useTraceContextPropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func TestHeaderCarrier(t *testing.T) {
	msg := &sarama.ProducerMessage{
		Headers: []sarama.RecordHeader{{Key: []byte("a"), Value: []byte("1")}},
	}
	c := HeaderCarrier{Message: msg}

	assert.Equal(t, "1", c.Get("a"))
	assert.Equal(t, "", c.Get("missing"))

	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestMessage(t *testing.T) {
	s := newTestSettings(t, true, observation.Noop)

	msg, err := s.Message(context.Background(), Record[string, event]{
		Topic:   "orders",
		Key:     "o-1",
		Value:   event{ID: "o-1"},
		Headers: map[string]string{"source": "test"},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", msg.Topic)
	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "o-1", string(key))
	value, err := msg.Value.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"o-1"}`, string(value))
	assert.Equal(t, "test", HeaderCarrier{Message: msg}.Get("source"))

	_, err = s.Message(context.Background(), Record[string, event]{Key: "k"})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestMessageNilPayload(t *testing.T) {
	s := newTestSettings(t, true, observation.Noop)
	s.ValueSerializer = sender.SerializerFunc[event](func(string, event) ([]byte, error) { return nil, nil })

	msg, err := s.Message(context.Background(), Record[string, event]{Topic: "orders", Key: "tombstone"})
	require.NoError(t, err)
	assert.Nil(t, msg.Value)
}

func TestMessageSerializerError(t *testing.T) {
	s := newTestSettings(t, true, observation.Noop)
	s.KeySerializer = sender.SerializerFunc[string](func(string, string) ([]byte, error) {
		return nil, fmt.Errorf("bad key")
	})

	_, err := s.Message(context.Background(), Record[string, event]{Topic: "orders"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSendInjectsTraceContext(t *testing.T) {
	useTraceContextPropagator(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := newTestSettings(t, true, observation.NewOTelRegistry(tp, noop.NewMeterProvider()))

	producer := mocks.NewSyncProducer(t, s.Sarama)
	var traceparent string
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		traceparent = HeaderCarrier{Message: msg}.Get("traceparent")
		return nil
	})

	_, _, err := s.Send(context.Background(), producer, Record[string, event]{Topic: "orders", Key: "o-1", Value: event{ID: "o-1"}})
	require.NoError(t, err)
	require.NoError(t, producer.Close())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "orders send", spans[0].Name())
	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())
	assert.Contains(t, traceparent, spans[0].SpanContext().SpanID().String())
}

func TestSendRecordsFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := newTestSettings(t, true, observation.NewOTelRegistry(tp, noop.NewMeterProvider()))

	producer := mocks.NewSyncProducer(t, s.Sarama)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	_, _, err := s.Send(context.Background(), producer, Record[string, event]{Topic: "orders", Key: "o-1"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.True(t, errors.IsRetryable(err))
	require.NoError(t, producer.Close())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEmpty(t, spans[0].Events(), "error should be recorded on the span")
}

func TestSendAllStopOnError(t *testing.T) {
	s := newTestSettings(t, true, observation.Noop)
	producer := mocks.NewSyncProducer(t, s.Sarama)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	records := []Record[string, event]{
		{Topic: "orders", Key: "1"},
		{Topic: "orders", Key: "2"},
		{Topic: "orders", Key: "3"},
	}
	err := s.SendAll(context.Background(), producer, records)
	require.Error(t, err)
	require.NoError(t, producer.Close())
}

func TestSendAllContinuesOnError(t *testing.T) {
	s := newTestSettings(t, false, observation.Noop)
	producer := mocks.NewSyncProducer(t, s.Sarama)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(sarama.ErrMessageSizeTooLarge)

	records := []Record[string, event]{
		{Topic: "orders", Key: "1"},
		{Topic: "orders", Key: "2"},
		{Topic: "orders", Key: "3"},
	}
	err := s.SendAll(context.Background(), producer, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.ErrorIs(t, err, sarama.ErrMessageSizeTooLarge)
	require.NoError(t, producer.Close())
}

func TestSendAllCancelled(t *testing.T) {
	s := newTestSettings(t, false, observation.Noop)
	producer := mocks.NewSyncProducer(t, s.Sarama)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.SendAll(ctx, producer, []Record[string, event]{{Topic: "orders"}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
	require.NoError(t, producer.Close())
}

func TestSendAllCancelledKeepsFailures(t *testing.T) {
	s := newTestSettings(t, false, observation.Noop)
	producer := mocks.NewSyncProducer(t, s.Sarama)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producer.ExpectSendMessageWithMessageCheckerFunctionAndFail(func(*sarama.ProducerMessage) error {
		cancel()
		return nil
	}, sarama.ErrOutOfBrokers)

	err := s.SendAll(ctx, producer, []Record[string, event]{
		{Topic: "orders", Key: "1"},
		{Topic: "orders", Key: "2"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, producer.Close())
}

func TestSendLogsFailureWithContext(t *testing.T) {
	log, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	logger.SetLogger(log)
	t.Cleanup(func() { logger.SetLogger(nil) })

	s := newTestSettings(t, false, observation.Noop)
	producer := mocks.NewSyncProducer(t, s.Sarama)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	_, _, err := s.Send(context.Background(), producer, Record[string, event]{Topic: "orders", Key: "1"})
	require.Error(t, err)

	entries := logs.FilterMessage("send failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "orders", fields["client_id"])
	assert.Equal(t, "orders", fields["topic"])
	require.NoError(t, producer.Close())
}
