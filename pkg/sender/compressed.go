package sender

import (
	"github.com/ajitpratap0/sender/pkg/compression"
	"github.com/ajitpratap0/sender/pkg/errors"
)

// CompressingSerializer compresses the output of another serializer. Nil
// payloads pass through so tombstones survive.
type CompressingSerializer[T any] struct {
	inner     Serializer[T]
	algorithm compression.Algorithm
	pool      *compression.CompressorPool
}

// NewCompressingSerializer wraps inner with payload compression.
func NewCompressingSerializer[T any](inner Serializer[T], config *compression.Config) (*CompressingSerializer[T], error) {
	if inner == nil {
		return nil, errors.InvalidArgument("serializer")
	}
	if config == nil {
		config = compression.DefaultConfig()
	}
	pool, err := compression.NewCompressorPool(config)
	if err != nil {
		return nil, err
	}
	return &CompressingSerializer[T]{inner: inner, algorithm: config.Algorithm, pool: pool}, nil
}

// Algorithm returns the payload compression algorithm.
func (s *CompressingSerializer[T]) Algorithm() compression.Algorithm {
	return s.algorithm
}

// Serialize implements Serializer.
func (s *CompressingSerializer[T]) Serialize(topic string, data T) ([]byte, error) {
	raw, err := s.inner.Serialize(topic, data)
	if err != nil || raw == nil {
		return raw, err
	}
	out, err := s.pool.Compress(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to compress payload").
			WithDetail("topic", topic)
	}
	return out, nil
}
