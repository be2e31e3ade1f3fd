package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestIDs(t *testing.T) {
	_, _, ok := IDs(context.Background())
	assert.False(t, ok)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	traceID, spanID, ok := IDs(ctx)
	require.True(t, ok)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), spanID)
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions(Config{Endpoint: "collector:4317"}), 1)
	assert.Len(t, exporterOptions(Config{Endpoint: "collector:4317", Insecure: true}), 2)
	assert.Len(t, exporterOptions(Config{
		Endpoint: "collector:4317",
		Insecure: true,
		Headers:  map[string]string{"authorization": "Bearer x"},
	}), 3)
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(Config{ServiceName: "hydraskript-api"})
	assert.Len(t, attrs, 1)

	attrs = resourceAttributes(Config{ServiceName: "hydraskript-api", ServiceVersion: "1.2.0", Environment: "production"})
	require.Len(t, attrs, 3)
	assert.Equal(t, "1.2.0", attrs[1].Value.AsString())
	assert.Equal(t, "production", attrs[2].Value.AsString())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
