// Package metrics собирает счётчики Prometheus по операциям расписания.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "school_scheduler"

// Metrics набор метрик сервиса
type Metrics struct {
	registry *prometheus.Registry

	bookings      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	generated     prometheus.Counter
	throttled     prometheus.Counter
	pruned        *prometheus.CounterVec
	lockWait      *prometheus.HistogramVec
	lockTimeouts  *prometheus.CounterVec
}

// New регистрирует метрики в registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by type and outcome.",
		}, []string{"type", "outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by outcome.",
		}, []string{"outcome"}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_generated_total",
			Help:      "Schedule instances created from templates.",
		}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_throttled_total",
			Help:      "Vacant instances skipped because the daily group capacity was reached.",
		}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_pruned_total",
			Help:      "Schedule instances removed by cleanup.",
		}, []string{"reason"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the mutation lock.",
			Buckets:   []float64{.001, .01, .05, .1, .5, 1, 5, 15, 30},
		}, []string{"lock"}),
		lockTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_timeouts_total",
			Help:      "Mutation lock acquisitions that timed out.",
		}, []string{"lock"}),
	}

	registry.MustRegister(
		m.bookings,
		m.cancellations,
		m.generated,
		m.throttled,
		m.pruned,
		m.lockWait,
		m.lockTimeouts,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Booking считает попытку бронирования; запрос с неразобранным типом идёт под меткой "unknown"
func (m *Metrics) Booking(bookingType, outcome string) {
	if bookingType == "" {
		bookingType = "unknown"
	}
	m.bookings.WithLabelValues(bookingType, outcome).Inc()
}

func (m *Metrics) Cancellation(outcome string) {
	m.cancellations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Generated(created, throttled int) {
	m.generated.Add(float64(created))
	m.throttled.Add(float64(throttled))
}

func (m *Metrics) Pruned(reason string, n int) {
	m.pruned.WithLabelValues(reason).Add(float64(n))
}

// ObserveLock подходит как наблюдатель блокировки
func (m *Metrics) ObserveLock(name string, wait time.Duration, acquired bool) {
	m.lockWait.WithLabelValues(name).Observe(wait.Seconds())
	if !acquired {
		m.lockTimeouts.WithLabelValues(name).Inc()
	}
}
