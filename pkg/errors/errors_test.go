package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("key")

	assert.Equal(t, ErrorTypeInvalidArgument, err.Type)
	assert.Equal(t, "key", err.Details["argument"])
	assert.NotEmpty(t, err.Stack)
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsRetryable(err))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeValidation, "bad value")
	outer := Wrap(inner, ErrorTypeConfig, "load failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.True(t, IsType(outer, ErrorTypeConfig))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeConfig, "unused"))
}

func TestWrapForeignError(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, ErrorTypeFile, "read")

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "file: read: unexpected EOF", err.Error())
}

func TestIsTypeForeignError(t *testing.T) {
	assert.False(t, IsType(io.EOF, ErrorTypeFile))
	assert.False(t, IsInvalidArgument(nil))
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeConfig, "unsupported acks %q", "2")
	assert.Equal(t, `config: unsupported acks "2"`, err.Error())
}
