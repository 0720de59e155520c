package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/logging"
)

func TestMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()

	r := gin.New()
	pm := NewPrometheusMiddleware("test", reg)
	r.Use(NewRequestLogger(logging.NewNopLogger()).Handler(), pm.Handler())
	pm.RegisterMetricsEndpoint(r, reg)

	var traceID string
	r.GET("/ok", func(c *gin.Context) {
		traceID = c.GetString(TraceIDKey)
		c.Status(http.StatusOK)
	})
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "внутренняя ошибка") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, traceID, "trace-id должен быть в контексте")
	assert.Equal(t, traceID, w.Header().Get("X-Trace-ID"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `test_http_request_errors_total{class="4xx",method="GET",route="/fail"} 1`), body)
	assert.True(t, strings.Contains(body, `test_http_request_errors_total{class="5xx",method="GET",route="/boom"} 1`), body)
	assert.True(t, strings.Contains(body, `test_http_request_errors_total{class="4xx",method="GET",route="unmatched"} 1`), "путь без маршрута должен схлопываться")
	assert.Contains(t, body, `test_http_request_duration_seconds_count{code="200",method="GET",route="/ok"} 1`)
	assert.Contains(t, body, `test_http_response_size_bytes_count{route="/boom"} 1`)
	assert.Contains(t, body, "test_http_requests_inflight 1", "запрос к /metrics сам находится в обработке")
}
