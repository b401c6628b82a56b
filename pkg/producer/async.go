package producer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

// Callback receives the result of one asynchronous send. partition and
// offset are -1 when err is set.
type Callback func(partition int32, offset int64, err error)

// AsyncSender sends records through a sarama.AsyncProducer. Each result is
// handed to its callback on the scheduler of the settings.
type AsyncSender[K, V any] struct {
	settings *Settings[K, V]
	producer sarama.AsyncProducer
	logger   *zap.Logger

	closing chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup

	failure atomic.Pointer[errors.Error]
}

// pendingSend travels with a message through the producer as its metadata.
type pendingSend struct {
	ctx      context.Context
	topic    string
	obs      observation.Observation
	callback Callback
}

// NewAsyncSender takes ownership of p and starts delivering its results.
// p should be built from settings.Sarama so successes are reported.
func NewAsyncSender[K, V any](settings *Settings[K, V], p sarama.AsyncProducer) (*AsyncSender[K, V], error) {
	if settings == nil {
		return nil, errors.InvalidArgument("settings")
	}
	if p == nil {
		return nil, errors.InvalidArgument("producer")
	}

	a := &AsyncSender[K, V]{
		settings: settings,
		producer: p,
		logger: logger.With(
			zap.String("component", "async_sender"),
			zap.String("client_id", settings.Sarama.ClientID)),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.dispatch()
	return a, nil
}

// Send serializes r and hands it to the producer. It blocks while the
// producer input is full. callback may be nil. With StopOnError set, Send
// fails once any earlier send has failed.
func (a *AsyncSender[K, V]) Send(ctx context.Context, r Record[K, V], callback Callback) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.New(errors.ErrorTypeClosed, "sender is closed")
	}
	a.senders.Add(1)
	a.mu.Unlock()
	defer a.senders.Done()

	if failure := a.failure.Load(); failure != nil {
		return errors.Wrap(failure, errors.ErrorTypeConnection, "sender stopped after a failed send")
	}

	s := a.settings
	ctx, obs := observation.Start(ctx, s.Registry, s.Convention, observation.SendContext{
		Topic:     r.Topic,
		ClientID:  s.Sarama.ClientID,
		Partition: -1,
	})
	msg, err := s.Message(ctx, r)
	if err != nil {
		obs.Error(err)
		obs.Stop()
		return err
	}
	msg.Metadata = &pendingSend{ctx: ctx, topic: r.Topic, obs: obs, callback: callback}

	select {
	case a.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		err = errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "send cancelled").
			WithDetail("topic", r.Topic)
	case <-a.closing:
		err = errors.New(errors.ErrorTypeClosed, "sender is closed")
	}
	obs.Error(err)
	obs.Stop()
	return err
}

// Close stops accepting records and waits until every result has been
// handed to the scheduler. The wait is bounded by ctx and by the close
// timeout of the settings.
func (a *AsyncSender[K, V]) Close(ctx context.Context) error {
	if timeout := a.settings.CloseTimeout; timeout < sender.DefaultCloseTimeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.closing)
		go func() {
			a.senders.Wait()
			a.producer.AsyncClose()
		}()
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		a.logger.Debug("async sender closed")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "async sender did not drain").
			WithDetail("close_timeout", a.settings.CloseTimeout.String())
	}
}

func (a *AsyncSender[K, V]) dispatch() {
	defer close(a.done)

	successes, failures := a.producer.Successes(), a.producer.Errors()
	for successes != nil || failures != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			a.deliver(msg, msg.Partition, msg.Offset, nil)
		case perr, ok := <-failures:
			if !ok {
				failures = nil
				continue
			}
			err := errors.Wrap(perr.Err, errors.ErrorTypeConnection, "failed to send message")
			if err == nil {
				err = errors.New(errors.ErrorTypeConnection, "failed to send message")
			}
			if perr.Msg != nil {
				err = err.WithDetail("topic", perr.Msg.Topic)
			}
			if a.settings.StopOnError {
				a.failure.CompareAndSwap(nil, err)
			}
			a.deliver(perr.Msg, -1, -1, err)
		}
	}
}

func (a *AsyncSender[K, V]) deliver(msg *sarama.ProducerMessage, partition int32, offset int64, err error) {
	var pending *pendingSend
	if msg != nil {
		pending, _ = msg.Metadata.(*pendingSend)
	}
	if pending == nil {
		a.logger.Warn("producer result without a pending send", zap.Error(err))
		return
	}

	if err != nil {
		pending.obs.Error(err)
		logger.WithContext(logContext(pending.ctx, a.settings.Sarama.ClientID, pending.topic)).
			Debug("async send failed", zap.Error(err))
	}
	pending.obs.Stop()

	if pending.callback == nil {
		return
	}
	callback := pending.callback
	if serr := a.settings.Scheduler.Schedule(func() { callback(partition, offset, err) }); serr != nil {
		a.logger.Error("send result dropped",
			zap.String("topic", pending.topic),
			zap.Error(serr))
	}
}
