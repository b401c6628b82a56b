package producer

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

// Record is a single key/value pair bound for a topic.
type Record[K, V any] struct {
	Topic     string
	Key       K
	Value     V
	Headers   map[string]string
	Timestamp time.Time
}

// HeaderCarrier exposes the headers of a producer message to OpenTelemetry
// propagators.
type HeaderCarrier struct {
	Message *sarama.ProducerMessage
}

var _ propagation.TextMapCarrier = HeaderCarrier{}

// Get returns the value of the first header named key.
func (c HeaderCarrier) Get(key string) string {
	for _, h := range c.Message.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

// Set replaces the header named key, or appends it.
func (c HeaderCarrier) Set(key, value string) {
	for i, h := range c.Message.Headers {
		if string(h.Key) == key {
			c.Message.Headers[i].Value = []byte(value)
			return
		}
	}
	c.Message.Headers = append(c.Message.Headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

// Keys lists the header names.
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Message.Headers))
	for _, h := range c.Message.Headers {
		keys = append(keys, string(h.Key))
	}
	return keys
}

// InjectTraceContext writes the trace context of ctx into the message
// headers using the global propagator.
func InjectTraceContext(ctx context.Context, msg *sarama.ProducerMessage) {
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier{Message: msg})
}

// Message serializes r into a producer message and injects the trace
// context of ctx.
func (s *Settings[K, V]) Message(ctx context.Context, r Record[K, V]) (*sarama.ProducerMessage, error) {
	if r.Topic == "" {
		return nil, errors.InvalidArgument("topic")
	}

	key, err := s.KeySerializer.Serialize(r.Topic, r.Key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to serialize message key").
			WithDetail("topic", r.Topic)
	}
	value, err := s.ValueSerializer.Serialize(r.Topic, r.Value)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to serialize message value").
			WithDetail("topic", r.Topic)
	}

	msg := &sarama.ProducerMessage{
		Topic:     r.Topic,
		Timestamp: r.Timestamp,
	}
	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}
	if value != nil {
		msg.Value = sarama.ByteEncoder(value)
	}
	for k, v := range r.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	InjectTraceContext(ctx, msg)
	return msg, nil
}

// logContext carries the client id and topic for logger.WithContext.
func logContext(ctx context.Context, clientID, topic string) context.Context {
	ctx = context.WithValue(ctx, logger.ClientIDKey, clientID)
	return context.WithValue(ctx, logger.TopicKey, topic)
}

// Send observes, serializes and synchronously sends r through p.
func (s *Settings[K, V]) Send(ctx context.Context, p sarama.SyncProducer, r Record[K, V]) (partition int32, offset int64, err error) {
	ctx, obs := observation.Start(ctx, s.Registry, s.Convention, observation.SendContext{
		Topic:     r.Topic,
		ClientID:  s.Sarama.ClientID,
		Partition: -1,
	})
	defer func() {
		if err != nil {
			obs.Error(err)
		}
		obs.Stop()
	}()

	msg, err := s.Message(ctx, r)
	if err != nil {
		return -1, -1, err
	}
	partition, offset, err = p.SendMessage(msg)
	if err != nil {
		logger.WithContext(logContext(ctx, s.Sarama.ClientID, r.Topic)).
			Debug("send failed", zap.Error(err))
		return -1, -1, errors.Wrap(err, errors.ErrorTypeConnection, "failed to send message").
			WithDetail("topic", r.Topic)
	}
	return partition, offset, nil
}

// SendAll sends records in order. With StopOnError set it returns at the
// first failure; otherwise every record is attempted and the failures are
// joined. Cancelling ctx stops the loop; the cancellation is joined with the
// failures seen so far.
func (s *Settings[K, V]) SendAll(ctx context.Context, p sarama.SyncProducer, records []Record[K, V]) error {
	var failures []error
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			failures = append(failures, errors.Wrap(err, errors.ErrorTypeTimeout, "send cancelled").
				WithDetail("sent", i))
			return errors.Join(failures...)
		}
		if _, _, err := s.Send(ctx, p, r); err != nil {
			if s.StopOnError {
				return err
			}
			logger.WithContext(logContext(ctx, s.Sarama.ClientID, r.Topic)).Warn("send failed, continuing",
				zap.Int("index", i),
				zap.Error(err))
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}
