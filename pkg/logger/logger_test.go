package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestGetBuildsDefault(t *testing.T) {
	SetLogger(nil)
	t.Cleanup(func() { SetLogger(nil) })

	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get())
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	ctx := context.WithValue(context.Background(), ClientIDKey, "producer-1")
	ctx = context.WithValue(ctx, TopicKey, "orders")
	WithContext(ctx).Info("sent")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "producer-1", fields["client_id"])
	assert.Equal(t, "orders", fields["topic"])
}

func TestPackageLevelHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	With(zap.String("component", "test")).Info("child")

	assert.Equal(t, 5, logs.Len())
	assert.Equal(t, "test", logs.All()[4].ContextMap()["component"])
}
