package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Booking("Replacement", "ok")
	m.Booking("Replacement", "ok")
	m.Booking("Substitution", "conflict")
	m.Generated(12, 1)
	m.Pruned("expired", 3)
	m.ObserveLock("schedule-mutations", 10*time.Millisecond, true)
	m.ObserveLock("schedule-mutations", time.Second, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("Replacement", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("Substitution", "conflict")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.generated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pruned.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockTimeouts.WithLabelValues("schedule-mutations")))
}

func TestBookingWithoutTypeIsUnknown(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Booking("", "validation")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("unknown", "validation")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.bookings.WithLabelValues("", "validation")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Cancellation("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `school_scheduler_cancellations_total{outcome="ok"} 1`)
}
