// Package metrics счётчики Prometheus для переходов заказов, уведомлений, HTTP и фоновых задач.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const namespace = "freelance_orders"

type Metrics struct {
	gatherer prometheus.Gatherer

	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	jobRuns       *prometheus.CounterVec
	jobAffected   *prometheus.CounterVec
}

// New регистрирует коллекторы в собственном реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usecase",
			Name:      "operations_total",
			Help:      "Операции жизненного цикла по результату и коду ошибки.",
		}, []string{"operation", "result", "code"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Отправленные уведомления по приёмнику и результату.",
		}, []string{"sink", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP-запросы по методу, маршруту и статусу.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Запуски фоновых задач.",
		}, []string{"job", "result"}),
		jobAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "affected_rows_total",
			Help:      "Строки, изменённые фоновыми задачами.",
		}, []string{"job"}),
	}

	reg.MustRegister(
		m.operations,
		m.notifications,
		m.httpRequests,
		m.httpDuration,
		m.jobRuns,
		m.jobAffected,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler отдаёт /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordOperation код ошибки попадает в метку, чтобы видеть отказы охранных условий отдельно от сбоев.
func (m *Metrics) RecordOperation(operation string, err error) {
	code := ""
	if err != nil {
		code = string(apperror.CodeOf(err))
	}
	m.operations.WithLabelValues(operation, result(err), code).Inc()
}

func (m *Metrics) RecordNotification(sink string, err error) {
	m.notifications.WithLabelValues(sink, result(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordJob(job string, affected int64, err error) {
	m.jobRuns.WithLabelValues(job, result(err)).Inc()
	if affected > 0 {
		m.jobAffected.WithLabelValues(job).Add(float64(affected))
	}
}
