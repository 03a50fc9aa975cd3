package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(Config{ServiceName: "leads-api", Environment: "test"})

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestConfigSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 0, want: "AlwaysOnSampler"},
		{ratio: -1, want: "AlwaysOnSampler"},
		{ratio: 2, want: "AlwaysOnSampler"},
		{ratio: 0.25, want: "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := Config{SampleRatio: tt.ratio}.sampler().Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, tt.want)
	}
}

func TestStartSpan_NoopWithoutTracer(t *testing.T) {
	ctx := context.Background()

	got, span := StartSpan(ctx, "leads.record", attribute.String("form", "ebook"))

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("boom"))
	EndSpan(span, nil)
}
