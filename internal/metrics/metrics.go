package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cricketpark"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings accepted.",
	})

	bookingConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_conflicts_total",
		Help:      "Booking attempts rejected because the slot was taken.",
	})

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions.",
		},
		[]string{"from", "to"},
	)

	paymentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payments recorded by method.",
		},
		[]string{"method"},
	)

	outboxEnqueueFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_enqueue_failures_total",
		Help:      "Booking events that could not be written to the outbox after the booking was saved.",
	})

	createDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "booking_create_duration_seconds",
		Help:      "Time spent creating a booking, including the conflict check.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, statusChanges, paymentsCreated,
			outboxEnqueueFailures, createDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncStatusChange(from, to string) {
	statusChanges.WithLabelValues(from, to).Inc()
}

func IncPaymentCreated(method string) {
	paymentsCreated.WithLabelValues(method).Inc()
}

func IncOutboxEnqueueFailure() {
	outboxEnqueueFailures.Inc()
}

// ObserveCreate records how long a create took since start.
func ObserveCreate(start time.Time) {
	createDuration.Observe(time.Since(start).Seconds())
}
