package sender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sender/pkg/compression"
	"github.com/ajitpratap0/sender/pkg/errors"
)

func TestCompressingSerializer(t *testing.T) {
	config := &compression.Config{Algorithm: compression.Zstd}
	s, err := NewCompressingSerializer[order](JSONSerializer[order]{}, config)
	require.NoError(t, err)
	assert.Equal(t, compression.Zstd, s.Algorithm())

	out, err := s.Serialize("orders", order{ID: "o-1", Amount: 9.5})
	require.NoError(t, err)

	comp, err := compression.NewCompressor(config)
	require.NoError(t, err)
	plain, err := comp.Decompress(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"o-1","amount":9.5}`, string(plain))
}

func TestCompressingSerializerKeepsTombstones(t *testing.T) {
	s, err := NewCompressingSerializer[any](JSONSerializer[any]{}, nil)
	require.NoError(t, err)
	assert.Equal(t, compression.Snappy, s.Algorithm())

	out, err := s.Serialize("orders", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCompressingSerializerErrors(t *testing.T) {
	_, err := NewCompressingSerializer[string](nil, nil)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = NewCompressingSerializer[string](StringSerializer{}, &compression.Config{Algorithm: "brotli"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	failing := SerializerFunc[string](func(string, string) ([]byte, error) {
		return nil, errors.New(errors.ErrorTypeData, "boom")
	})
	s, err := NewCompressingSerializer[string](failing, nil)
	require.NoError(t, err)
	_, err = s.Serialize("t", "x")
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}
