package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling metrics
	BookingsTotal       prometheus.Counter
	BookingConflicts    prometheus.Counter
	BookingsUnavailable prometheus.Counter
	CancellationsTotal  prometheus.Counter
	ReschedulesTotal    prometheus.Counter
	SeriesCreated       prometheus.Counter
	OccurrencesSkipped  prometheus.Counter

	// Reminder metrics
	RemindersSent   prometheus.Counter
	RemindersFailed prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the metric set without registering it; call Register on
// the target registerer exactly once per process.
func New(namespace string) *Metrics {
	return &Metrics{
		BookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Total number of appointments booked",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Total number of booking attempts rejected for overlapping an existing appointment",
		}),
		BookingsUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_unavailable_total",
			Help:      "Total number of booking attempts rejected for falling outside working hours",
		}),
		CancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Total number of appointments cancelled",
		}),
		ReschedulesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reschedules_total",
			Help:      "Total number of appointments rescheduled",
		}),
		SeriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_series_created_total",
			Help:      "Total number of recurring series created",
		}),
		OccurrencesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_occurrences_skipped_total",
			Help:      "Total number of series occurrences skipped for conflicts or closed hours",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Total number of appointment reminders delivered",
		}),
		RemindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Total number of appointment reminders that failed delivery",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
	}
}

// Register registers every metric with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.BookingsTotal,
		m.BookingConflicts,
		m.BookingsUnavailable,
		m.CancellationsTotal,
		m.ReschedulesTotal,
		m.SeriesCreated,
		m.OccurrencesSkipped,
		m.RemindersSent,
		m.RemindersFailed,
		m.RequestsTotal,
		m.RequestDuration,
	)
}
