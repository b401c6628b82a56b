// Package sender is the root of the Kafka sender options module.
//
// The module keeps everything a Kafka sender needs to know before it sends
// its first record: producer properties, serializers, result scheduling,
// back-pressure limits, error policy, close timeout and observation. The
// settings live in an immutable value that can be shared freely between
// goroutines and derived from without affecting the original.
//
// # Packages
//
//   - pkg/sender: the immutable Options[K, V] value, serializers and schedulers
//   - pkg/sender/observation: span and metric recording around each send
//   - pkg/config: loading options from YAML, JSON, TOML or .properties files
//   - pkg/producer: translating options into a sarama producer configuration
//     and building producer messages
//   - pkg/compression: payload compression for value serializers
//   - pkg/observability: tracer provider and Prometheus registry setup
//   - pkg/errors, pkg/logger, pkg/json: shared error, logging and JSON helpers
//   - cmd/senderctl: a CLI to describe, generate and dry-run configurations
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/sender/pkg/config"
//	    "github.com/ajitpratap0/sender/pkg/producer"
//	    "github.com/ajitpratap0/sender/pkg/sender"
//	)
//
//	f, err := config.Load("sender.yaml")
//	if err != nil {
//	    return err
//	}
//	opts, err := config.BuildOptions[string, Order](f)
//	if err != nil {
//	    return err
//	}
//	opts, err = opts.WithValueSerializer(sender.JSONSerializer[Order]{})
//	if err != nil {
//	    return err
//	}
//
//	settings, err := producer.NewSettings(opts)
//	if err != nil {
//	    return err
//	}
//	p, err := sarama.NewSyncProducer(settings.Brokers, settings.Sarama)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	_, _, err = settings.Send(ctx, p, producer.Record[string, Order]{
//	    Topic: "orders",
//	    Key:   order.ID,
//	    Value: order,
//	})
//
// # Configuration
//
// A configuration file has a producer section holding Kafka client
// properties under their dotted names and a sender section for the typed
// settings:
//
//	producer:
//	  bootstrap.servers: ${KAFKA_BROKERS}
//	  acks: all
//	  enable.idempotence: true
//	sender:
//	  max_in_flight: 256
//	  stop_on_error: true
//	  close_timeout: 30s
//
// The environment variables SENDER_MAX_IN_FLIGHT, SENDER_STOP_ON_ERROR and
// SENDER_CLOSE_TIMEOUT override the sender section.
package sender
