// Package producer turns sender options into everything needed to build a
// sarama producer: broker addresses, a validated sarama configuration and the
// resolved serializers, scheduler and observation settings. It performs no
// network I/O.
package producer

import (
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

// Settings is the resolved producer setup for one sender.
type Settings[K, V any] struct {
	Brokers         []string
	Sarama          *sarama.Config
	KeySerializer   sender.Serializer[K]
	ValueSerializer sender.Serializer[V]
	Scheduler       sender.Scheduler
	StopOnError     bool
	CloseTimeout    time.Duration
	Registry        observation.Registry
	Convention      observation.Convention
}

// NewSettings resolves opts. Serializers set on opts take precedence over
// the key.serializer and value.serializer properties. A nil convention on
// opts resolves to observation.DefaultConvention.
func NewSettings[K, V any](opts *sender.Options[K, V]) (*Settings[K, V], error) {
	props := opts.ProducerProperties()

	brokers, err := Brokers(props)
	if err != nil {
		return nil, err
	}
	config, err := NewSaramaConfig(props, opts.MaxInFlight())
	if err != nil {
		return nil, err
	}

	keySer, err := sender.ResolveSerializer[K](opts.KeySerializer(), props[sender.KeySerializerClassConfig])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot resolve key serializer")
	}
	valueSer, err := sender.ResolveSerializer[V](opts.ValueSerializer(), props[sender.ValueSerializerClassConfig])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot resolve value serializer")
	}

	convention := opts.ObservationConvention()
	if convention == nil {
		convention = observation.DefaultConvention
	}

	logger.Debug("resolved producer settings",
		zap.String("client_id", config.ClientID),
		zap.Strings("brokers", brokers),
		zap.Bool("transactional", config.Producer.Transaction.ID != ""),
		zap.Int("max_in_flight", opts.MaxInFlight()))

	return &Settings[K, V]{
		Brokers:         brokers,
		Sarama:          config,
		KeySerializer:   keySer,
		ValueSerializer: valueSer,
		Scheduler:       opts.Scheduler(),
		StopOnError:     opts.StopOnError(),
		CloseTimeout:    opts.CloseTimeout(),
		Registry:        opts.ObservationRegistry(),
		Convention:      convention,
	}, nil
}
