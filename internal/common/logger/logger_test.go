// Package logger 日志模块单元测试
package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dumeirei/glamping-backend/internal/common/config"
)

// ==================== Init 测试 ====================

func TestInit_Formats(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			err := Init(&config.LoggerConfig{Level: "info", Format: format, Output: "stdout", Caller: true})
			assert.NoError(t, err)
			assert.NotNil(t, log)
			assert.NotNil(t, sugar)
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "glamping.log")

	err := Init(&config.LoggerConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 3,
		MaxAge:     7,
	})
	require.NoError(t, err)

	Info("booking recalculated", BookingID(42))
	_ = Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"booking_id":42`)
}

// ==================== getLogLevel 测试 ====================

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, getLogLevel(tt.level))
		})
	}
}

// ==================== GetLogger 测试 ====================

func TestGetLogger_LazyInit(t *testing.T) {
	log = nil
	sugar = nil

	l := GetLogger()
	assert.NotNil(t, l)
	assert.Same(t, l, GetLogger())
	assert.NotNil(t, GetSugar())
}

func TestSync_WithNilLogger(t *testing.T) {
	log = nil
	assert.NoError(t, Sync())
}

// ==================== 字段测试 ====================

func TestBookingFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	Warn("voucher rejected",
		BookingID(7),
		BookingNo("GL20260101000001"),
		UnitID(3),
		VoucherCode("SUMMER"),
		Amount("total", decimal.NewFromInt(1234)),
		Module("booking"),
		Action("apply_voucher"),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(7), fields["booking_id"])
	assert.Equal(t, "GL20260101000001", fields["booking_no"])
	assert.Equal(t, int64(3), fields["unit_id"])
	assert.Equal(t, "SUMMER", fields["voucher_code"])
	assert.Equal(t, "1234", fields["total"])
	assert.Equal(t, "booking", fields["module"])
	assert.Equal(t, "apply_voucher", fields["action"])
}

func TestLogLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))

	Debug("dropped")
	Info("dropped")
	Warn("kept")
	Error("kept", Err(assert.AnError))
	Warnf("kept %d", 3)

	assert.Equal(t, 3, logs.Len())
}

func TestWithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	With(Module("quote")).Info("cache miss")
	Named("recalc").Info("done")

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "quote", all[0].ContextMap()["module"])
	assert.Equal(t, "recalc", all[1].LoggerName)
}

func TestCtx_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	Ctx(context.Background()).Info("no span")

	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx, span := provider.Tracer("test").Start(context.Background(), "booking.tent_added")
	Ctx(ctx).Info("with span")
	span.End()

	all := logs.All()
	require.Len(t, all, 2)
	assert.NotContains(t, all[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), all[1].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), all[1].ContextMap()["span_id"])
}
