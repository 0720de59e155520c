package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute подставляется вместо пути запроса без маршрута,
// чтобы произвольные URL не раздували число серий
const unmatchedRoute = "unmatched"

// PrometheusMiddleware собирает HTTP-метрики REST API.
//
//	mw := middleware.NewPrometheusMiddleware("raycast_api", registry)
//	r.Use(mw.Handler())
//	mw.RegisterMetricsEndpoint(r, registry)
//
// Серии (с пространством имён service):
//   - http_request_duration_seconds{method,route,code}
//   - http_response_size_bytes{route}
//   - http_requests_inflight
//   - http_request_errors_total{method,route,class}, class = 4xx или 5xx
type PrometheusMiddleware struct {
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
	inflight prometheus.Gauge
	errors   *prometheus.CounterVec
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg.
// nil означает регистр по умолчанию.
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMiddleware{
		// Бросок луча обычно укладывается в миллисекунды, трассировка бывает дольше
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 2},
		}, []string{"method", "route", "code"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_response_size_bytes",
			Help:      "Размер тела ответа.",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
		}, []string{"route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся кодом 4xx или 5xx.",
		}, []string{"method", "route", "class"}),
	}

	reg.MustRegister(pm.duration, pm.size, pm.inflight, pm.errors)
	return pm
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		code := c.Writer.Status()

		pm.duration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
		if written := c.Writer.Size(); written > 0 {
			pm.size.WithLabelValues(route).Observe(float64(written))
		}

		switch {
		case code >= 500:
			pm.errors.WithLabelValues(method, route, "5xx").Inc()
		case code >= 400:
			pm.errors.WithLabelValues(method, route, "4xx").Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics, отдающий gatherer
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r gin.IRoutes, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
}
