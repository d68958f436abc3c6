package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rileyhilliard/aidash/internal/observability"
)

type testPropagator struct{}

func (testPropagator) Inject(context.Context, propagation.TextMapCarrier) {}

func (testPropagator) Extract(ctx context.Context, _ propagation.TextMapCarrier) context.Context {
	return ctx
}

func (testPropagator) Fields() []string { return nil }

type testErrorHandler struct{}

func (testErrorHandler) Handle(error) {}

// installSentinels replaces the otel globals with recognisable values and
// restores the originals when the test ends.
func installSentinels(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()

	origTP := otel.GetTracerProvider()
	origPropagator := otel.GetTextMapPropagator()
	origErrorHandler := otel.GetErrorHandler()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetTextMapPropagator(origPropagator)
		otel.SetErrorHandler(origErrorHandler)
	})

	sentinel := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sentinel.Shutdown(context.Background()) })

	otel.SetTracerProvider(sentinel)
	otel.SetTextMapPropagator(testPropagator{})
	otel.SetErrorHandler(testErrorHandler{})
	return sentinel
}

func assertRestored(t *testing.T, sentinel *sdktrace.TracerProvider) {
	t.Helper()
	assert.Same(t, sentinel, otel.GetTracerProvider())
	assert.IsType(t, testPropagator{}, otel.GetTextMapPropagator())
	assert.IsType(t, testErrorHandler{}, otel.GetErrorHandler())
}

func TestSetupTelemetry_Disabled(t *testing.T) {
	sentinel := installSentinels(t)

	shutdown, err := observability.SetupTelemetry(testContext(t), &observability.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(testContext(t)))

	assertRestored(t, sentinel)
}

func TestSetupTelemetry_NilConfig(t *testing.T) {
	shutdown, err := observability.SetupTelemetry(testContext(t), nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(testContext(t)))
}

func TestSetupTelemetry_Enabled(t *testing.T) {
	sentinel := installSentinels(t)

	shutdown, err := observability.SetupTelemetry(testContext(t), &observability.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		ServiceName: "aidash-test",
		Version:     "0.0.1",
		Commit:      "abc123",
		Backend:     "http://localhost:8000",
	})
	require.NoError(t, err)

	tp := otel.GetTracerProvider()
	assert.NotSame(t, sentinel, tp)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)

	require.NoError(t, shutdown(testContext(t)))
	assertRestored(t, sentinel)
}

func TestSetupTelemetry_RestoresOnCanceledShutdown(t *testing.T) {
	sentinel := installSentinels(t)

	shutdown, err := observability.SetupTelemetry(testContext(t), &observability.TelemetryConfig{Enabled: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	_ = shutdown(ctx)

	assertRestored(t, sentinel)
}

func TestIsTelemetryEnabled(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		configured bool
		want       bool
	}{
		{"empty uses config off", "", false, false},
		{"empty uses config on", "", true, true},
		{"true", "true", false, true},
		{"TRUE", "TRUE", false, true},
		{"1", "1", false, true},
		{"yes", "yes", false, true},
		{"false overrides config", "false", true, false},
		{"0", "0", true, false},
		{"random", "random", true, false},
		{"whitespace true", "  true  ", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(observability.EnvEnabled, tt.envValue)
			assert.Equal(t, tt.want, observability.IsTelemetryEnabled(tt.configured))
		})
	}
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, observability.Tracer("aidash.test"))
}
