package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dumeirei/glamping-backend/internal/common/response"
)

func setupTracingRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
		_ = provider.Shutdown(context.Background())
	})

	r := gin.New()
	r.Use(Tracing(&TracingConfig{
		ServiceName: "test",
		SkipPaths:   []string{"/health"},
		ActorID:     func(c *gin.Context) int64 { return c.GetInt64("admin_id") },
	}))
	r.GET("/api/v1/admin/bookings/:id", func(c *gin.Context) {
		c.Set("admin_id", int64(7))
		c.Status(http.StatusOK)
	})
	r.PUT("/api/v1/admin/bookings/:id/status", func(c *gin.Context) {
		response.ErrorStatus(c, http.StatusConflict, 8001, "预订状态不允许该操作", nil)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, recorder
}

func TestTracing_RecordsRouteSpan(t *testing.T) {
	r, recorder := setupTracingRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/3", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/admin/bookings/:id", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.NotEmpty(t, w.Header().Get("traceparent"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("actor.id", 7))
}

func TestTracing_RecordsBusinessErrorCode(t *testing.T) {
	r, recorder := setupTracingRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/admin/bookings/3/status", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("app.error_code", 8001))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestTracing_ServerErrorStatus(t *testing.T) {
	r, recorder := setupTracingRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_SkipPaths(t *testing.T) {
	r, recorder := setupTracingRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, recorder.Ended())
}
