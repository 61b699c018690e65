// Package metrics exposes Prometheus instrumentation for reminder
// reconciliation, check-ins and schedule conflicts.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studytrack"

// Metrics groups the collectors recorded by the service layer.
type Metrics struct {
	registry *prometheus.Registry

	RemindersCreated  *prometheus.CounterVec
	RemindersMissed   prometheus.Counter
	CheckIns          prometheus.Counter
	HoursCredited     prometheus.Counter
	ScheduleConflicts prometheus.Counter
	ReconcileErrors   prometheus.Counter
	ReconcileDuration prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RemindersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Daily reminder records synthesized, by initial status.",
		}, []string{"status"}),
		RemindersMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_missed_total",
			Help:      "Reminder records that became MISSED.",
		}),
		CheckIns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Study sessions checked in.",
		}),
		HoursCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "study_hours_credited_total",
			Help:      "Study hours credited to subjects by check-ins.",
		}),
		ScheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_conflicts_total",
			Help:      "Subject saves rejected because of an overlapping schedule.",
		}),
		ReconcileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_errors_total",
			Help:      "Reconciliation passes that failed to compute or persist.",
		}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling and persisting one user's reminders.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RemindersCreated,
		m.RemindersMissed,
		m.CheckIns,
		m.HoursCredited,
		m.ScheduleConflicts,
		m.ReconcileErrors,
		m.ReconcileDuration,
	)
	return m
}

// RegisterDB exports the connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, namespace))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
