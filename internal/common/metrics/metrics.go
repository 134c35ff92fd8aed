// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ZoneClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduling_zone_classifications_total",
			Help: "Addresses classified, by resolution method and zone",
		},
		[]string{"method", "zone"},
	)

	SlotsOffered = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduling_slots_offered",
			Help:    "Free slots found per availability plan",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 35},
		},
		[]string{"zone", "urgent"},
	)

	BookingsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduling_bookings_confirmed_total",
			Help: "Appointments confirmed with a linked work order",
		},
		[]string{"zone"},
	)

	BookingConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduling_booking_conflicts_total",
			Help: "Confirmations rejected because the slot was locked or already booked",
		},
		[]string{"reason"},
	)
)
