// Package metrics 提供 Prometheus 指标收集单元测试
package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New("test", prometheus.NewRegistry())
}

func TestNew(t *testing.T) {
	m := newTestMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.bookingMutationsTotal)
	assert.NotNil(t, m.availabilityConflicts)
	assert.NotNil(t, m.voucherRejections)
	assert.NotNil(t, m.recalculationsTotal)
	assert.NotNil(t, m.recalcDuration)
}

func TestGetMetrics(t *testing.T) {
	m := Init("test_global")
	assert.Same(t, m, GetMetrics())
}

func TestMetrics_RecordBookingMutation(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordBookingMutation("add_tent", nil)
	m.RecordBookingMutation("add_tent", nil)
	m.RecordBookingMutation("add_tent", errors.New("conflict"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingMutationsTotal.WithLabelValues("add_tent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingMutationsTotal.WithLabelValues("add_tent", "error")))
}

func TestMetrics_RecordEngineEvents(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordAvailabilityConflict(12)
	m.RecordVoucherRejection("already_used")
	m.RecordVoucherRejection("already_used")
	m.RecordRecalculation(3 * time.Millisecond)
	m.RecordNotification("inapp", nil)
	m.RecordCacheHit("quote")
	m.RecordCacheMiss("quote")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.availabilityConflicts.WithLabelValues("12")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.voucherRejections.WithLabelValues("already_used")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recalculationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("inapp", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHitsTotal.WithLabelValues("quote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMissesTotal.WithLabelValues("quote")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBookingMutation("add_tent", nil)
		m.RecordAvailabilityConflict(1)
		m.RecordVoucherRejection("expired")
		m.RecordRecalculation(time.Millisecond)
		m.RecordNotification("kafka", errors.New("down"))
		m.RecordCacheHit("quote")
		m.RecordCacheMiss("quote")
	})
}

func TestMetrics_Middleware(t *testing.T) {
	m := newTestMetrics(t)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/v1/admin/bookings/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/bookings/7", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/admin/bookings/:id", "200")))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}

func TestHandler(t *testing.T) {
	router := gin.New()
	router.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_")
}
