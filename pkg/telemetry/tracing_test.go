package telemetry_test

import (
	"context"
	"testing"

	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/diillson/sw-characters-go/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestNewLocalTracerProvider_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp, err := telemetry.NewLocalTracerProvider(context.Background(),
		config.TracingConfig{ServiceName: "test", SamplingRatio: 1},
		zaptest.NewLogger(t),
		sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "Migrations")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Migrations", spans[0].Name())
}

func TestNewTracerProvider_LazyConnection(t *testing.T) {
	// grpc.NewClient não conecta imediatamente, então um endpoint sem coletor é aceito
	tp, err := telemetry.NewTracerProvider(context.Background(),
		config.TracingConfig{Endpoint: "localhost:4317", ServiceName: "test", SamplingRatio: 0.5},
		zaptest.NewLogger(t))
	require.NoError(t, err)
	tp.Shutdown(context.Background())
}
