package observation

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys attached by DefaultConvention.
const (
	MessagingSystemKey      = attribute.Key("messaging.system")
	MessagingOperationKey   = attribute.Key("messaging.operation")
	MessagingDestinationKey = attribute.Key("messaging.destination.name")
	MessagingClientIDKey    = attribute.Key("messaging.client_id")
	MessagingPartitionKey   = attribute.Key("messaging.kafka.destination.partition")
)

// DefaultObservationName is the observation name used by DefaultConvention.
const DefaultObservationName = "kafka.sender"

// Convention names and tags observations. Sender options carry an optional
// Convention; when none is set DefaultConvention applies.
type Convention interface {
	// Name is the stable name of the observation, used for metric names.
	Name() string
	// ContextualName is the per-send name, used for span names.
	ContextualName(sc SendContext) string
	// LowCardinalityKeyValues are the tags attached to every observation.
	LowCardinalityKeyValues(sc SendContext) []attribute.KeyValue
}

// DefaultConvention follows the OpenTelemetry messaging conventions.
var DefaultConvention Convention = defaultConvention{}

type defaultConvention struct{}

func (defaultConvention) Name() string { return DefaultObservationName }

func (defaultConvention) ContextualName(sc SendContext) string {
	if sc.Topic == "" {
		return "send"
	}
	return sc.Topic + " send"
}

func (defaultConvention) LowCardinalityKeyValues(sc SendContext) []attribute.KeyValue {
	kvs := []attribute.KeyValue{
		MessagingSystemKey.String("kafka"),
		MessagingOperationKey.String("publish"),
		MessagingDestinationKey.String(sc.Topic),
		MessagingClientIDKey.String(sc.ClientID),
	}
	if sc.Partition >= 0 {
		kvs = append(kvs, MessagingPartitionKey.String(strconv.FormatInt(int64(sc.Partition), 10)))
	}
	return kvs
}
