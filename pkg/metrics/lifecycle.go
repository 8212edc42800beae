package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records outcomes of inventory lifecycle operations.
type LifecycleMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	reservations prometheus.Counter
	racesLost    prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_operation_duration_seconds",
		Help:    "Duration of inventory lifecycle operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operation_success",
		Help: "Successful inventory lifecycle operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operation_failure",
		Help: "Failed inventory lifecycle operations.",
	}, []string{"operation"})
	reservations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservations_secured",
		Help: "Part item reservations secured by the reservation engine.",
	})
	racesLost := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservation_races_lost",
		Help: "Candidate transitions skipped because a concurrent caller won the item.",
	})
	reg.MustRegister(duration, success, failure, reservations, racesLost)
	return &LifecycleMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		reservations: reservations,
		racesLost:    racesLost,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *LifecycleMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *LifecycleMetrics) IncSuccess(operation string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (m *LifecycleMetrics) IncFailure(operation string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddReservations counts reservations secured by an approve call.
func (m *LifecycleMetrics) AddReservations(count int) {
	if m == nil || m.reservations == nil || count <= 0 {
		return
	}
	m.reservations.Add(float64(count))
}

// IncRaceLost counts a candidate lost to a concurrent reservation.
func (m *LifecycleMetrics) IncRaceLost() {
	if m == nil || m.racesLost == nil {
		return
	}
	m.racesLost.Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
