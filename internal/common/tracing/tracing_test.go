// Package tracing 提供 OpenTelemetry 分布式追踪单元测试
package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 安装内存导出器并在测试结束后恢复全局 provider
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestInit(t *testing.T) {
	t.Run("默认配置", func(t *testing.T) {
		prev := otel.GetTracerProvider()
		t.Cleanup(func() { otel.SetTracerProvider(prev) })

		tracer, err := Init(nil)
		require.NoError(t, err)
		assert.Equal(t, "glamping-backend", tracer.config.ServiceName)
		assert.NotNil(t, tracer.provider)
		assert.NoError(t, tracer.Shutdown(context.Background()))
	})

	t.Run("禁用追踪", func(t *testing.T) {
		tracer, err := Init(&Config{ServiceName: "off", Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, tracer.provider)
		assert.NoError(t, tracer.Shutdown(context.Background()))
	})
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(0).Description())
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestStartAndEnd(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := Start(context.Background(), "booking.add_tent", WithBookingID(7), WithUnitID(3))
	AddEvent(ctx, "availability_checked")
	SetAttributes(ctx, WithOperation("add_tent"))
	End(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "booking.add_tent", got.Name())
	assert.Equal(t, codes.Unset, got.Status().Code)
	assert.Len(t, got.Events(), 1)

	attrs := map[string]interface{}{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(7), attrs["booking.id"])
	assert.Equal(t, int64(3), attrs["unit.id"])
	assert.Equal(t, "add_tent", attrs["operation"])
}

func TestEnd_WithError(t *testing.T) {
	recorder := useRecorder(t)

	_, span := Start(context.Background(), "booking.apply_voucher")
	End(span, errors.New("already_used"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "already_used", spans[0].Status().Description)
}

func TestStart_WithoutProvider(t *testing.T) {
	ctx, span := Start(context.Background(), "noop")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { End(span, errors.New("ignored")) })
}
