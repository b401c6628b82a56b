package sender

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/sender/pkg/errors"
	jsonpool "github.com/ajitpratap0/sender/pkg/json"
)

// Serializer converts a record key or value into the bytes written to Kafka.
type Serializer[T any] interface {
	Serialize(topic string, data T) ([]byte, error)
}

// SerializerFunc adapts a function to the Serializer interface.
type SerializerFunc[T any] func(topic string, data T) ([]byte, error)

// Serialize calls f(topic, data).
func (f SerializerFunc[T]) Serialize(topic string, data T) ([]byte, error) {
	return f(topic, data)
}

// StringSerializer writes strings as UTF-8 bytes.
type StringSerializer struct{}

// Serialize implements Serializer.
func (StringSerializer) Serialize(_ string, data string) ([]byte, error) {
	return []byte(data), nil
}

// ByteArraySerializer passes byte slices through unchanged.
type ByteArraySerializer struct{}

// Serialize implements Serializer.
func (ByteArraySerializer) Serialize(_ string, data []byte) ([]byte, error) {
	return data, nil
}

// JSONSerializer encodes values as compact JSON. A nil value serializes to a
// nil payload so tombstones survive.
type JSONSerializer[T any] struct{}

// Serialize implements Serializer.
func (JSONSerializer[T]) Serialize(topic string, data T) ([]byte, error) {
	if any(data) == nil {
		return nil, nil
	}
	out, err := jsonpool.MarshalCompact(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to serialize JSON").
			WithDetail("topic", topic)
	}
	return out, nil
}

// AvroSerializer encodes native Go values (maps, slices and scalars as
// goavro understands them) into Avro binary using a fixed schema.
type AvroSerializer struct {
	codec *goavro.Codec
}

// NewAvroSerializer compiles schema into a serializer.
func NewAvroSerializer(schema string) (*AvroSerializer, error) {
	if schema == "" {
		return nil, errors.InvalidArgument("schema")
	}
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create Avro codec")
	}
	return &AvroSerializer{codec: codec}, nil
}

// Schema returns the canonical form of the serializer schema.
func (s *AvroSerializer) Schema() string {
	return s.codec.CanonicalSchema()
}

// Serialize implements Serializer.
func (s *AvroSerializer) Serialize(topic string, data any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	out, err := s.codec.BinaryFromNative(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to serialize Avro").
			WithDetail("topic", topic)
	}
	return out, nil
}

// ResolveSerializer returns explicit when set. Otherwise it maps the class
// configured in the overlay (the key.serializer or value.serializer entry) to
// a built-in serializer. The class may be a Serializer[T] instance, a Kafka
// class name or one of the short names "string", "bytes" and "json".
func ResolveSerializer[T any](explicit Serializer[T], class any) (Serializer[T], error) {
	if explicit != nil {
		return explicit, nil
	}
	if class == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "no serializer configured")
	}
	if s, ok := class.(Serializer[T]); ok {
		return s, nil
	}

	name := strings.TrimSpace(fmt.Sprint(class))
	var builtin any
	switch strings.ToLower(name) {
	case "string", "org.apache.kafka.common.serialization.stringserializer":
		builtin = StringSerializer{}
	case "bytes", "bytearray", "org.apache.kafka.common.serialization.bytearrayserializer":
		builtin = ByteArraySerializer{}
	case "json", "org.springframework.kafka.support.serializer.jsonserializer":
		return JSONSerializer[T]{}, nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, "unsupported serializer class").
			WithDetail("class", name)
	}

	s, ok := builtin.(Serializer[T])
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "serializer %s cannot encode %s", name, reflect.TypeOf((*T)(nil)).Elem()).
			WithDetail("class", name)
	}
	return s, nil
}
