package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/pkg/tracing"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := tracing.NewProvider(context.Background(), tracing.Config{Enabled: false})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_NoExporter(t *testing.T) {
	p, err := tracing.NewProvider(context.Background(), tracing.Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "registry.CreateProduct")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := tracing.NewProvider(context.Background(), tracing.Config{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}
