package raycast

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - метрики броска лучей.
//
// * casts_total{mode,result} - counter
// * cast_steps{mode} - histogram числа шагов
// * cast_duration_seconds{mode} - histogram
// * query_failures_total{source} - counter
type Metrics struct {
	casts         *prometheus.CounterVec
	steps         *prometheus.HistogramVec
	duration      *prometheus.HistogramVec
	queryFailures *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется дефолтный регистр.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		casts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "raycast",
			Name:      "casts_total",
			Help:      "Количество бросков луча по режиму и результату.",
		}, []string{"mode", "result"}),
		steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "raycast",
			Name:      "cast_steps",
			Help:      "Число проверенных шагов за бросок.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "raycast",
			Name:      "cast_duration_seconds",
			Help:      "Длительность броска луча.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"mode"}),
		queryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "raycast",
			Name:      "query_failures_total",
			Help:      "Ошибки коллабораторов, прервавшие бросок.",
		}, []string{"source"}),
	}

	reg.MustRegister(m.casts, m.steps, m.duration, m.queryFailures)
	return m
}

func (m *Metrics) observe(mode Mode, res HitResult, err error, started time.Time) {
	if m == nil {
		return
	}

	result := "error"
	if err == nil {
		result = res.Kind.String()
	}
	m.casts.WithLabelValues(mode.String(), result).Inc()
	m.duration.WithLabelValues(mode.String()).Observe(time.Since(started).Seconds())
	if err == nil {
		m.steps.WithLabelValues(mode.String()).Observe(float64(res.Steps))
	}
}

func (m *Metrics) queryFailure(source QuerySource) {
	if m == nil {
		return
	}
	m.queryFailures.WithLabelValues(string(source)).Inc()
}
