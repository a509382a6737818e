package logging_test

import (
	"context"
	"testing"

	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/diillson/sw-characters-go/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	logger, err := logging.NewLogger(config.LoggingConfig{Level: "debug", Format: "console", Production: false})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = logging.NewLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestContextLogger_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := logging.NewContextLogger(zap.New(core))

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.InfoCtx(ctx, "com span", zap.String("k", "v"))
	logger.InfoCtx(context.Background(), "sem span")

	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, "v", fields["k"])

	_, ok := entries[1].ContextMap()["trace_id"]
	assert.False(t, ok)
}
