package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMiddleware HTTP-метрики сервера статуса:
// длительность запросов, запросы в работе и ответы 4xx/5xx.
type PrometheusMiddleware struct {
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
	failures *prometheus.CounterVec
}

var httpLabels = []string{"method", "path", "status"}

// NewPrometheusMiddleware регистрирует метрики в reg под пространством имён namespace
func NewPrometheusMiddleware(namespace string, reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, httpLabels),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Ответы со статусом 4xx/5xx.",
		}, httpLabels),
	}

	for _, c := range []prometheus.Collector{pm.duration, pm.inflight, pm.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// Handler gin middleware
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		start := time.Now()
		c.Next()

		code := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			// Произвольные URL сводим к одной метке
			route = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": route, "status": strconv.Itoa(code)}

		pm.duration.With(labels).Observe(time.Since(start).Seconds())
		if code >= 400 {
			pm.failures.With(labels).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics
func RegisterMetricsEndpoint(r *gin.Engine, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
