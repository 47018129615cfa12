package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts finished solver jobs by model and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelas_solver_jobs_total",
			Help: "Total number of solver jobs by terminal status",
		},
		[]string{"model", "status"},
	)

	// JobDuration tracks wall time of solver processes in seconds.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelas_solver_job_duration_seconds",
			Help:    "Duration of solver processes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 15), // 50ms to ~14min
		},
		[]string{"model"},
	)

	// ActiveJobs tracks the number of registered solver processes.
	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "novelas_solver_active_jobs",
			Help: "Number of solver processes currently registered",
		},
	)

	// Preemptions counts jobs killed to make room for newer ones.
	Preemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelas_solver_preemptions_total",
			Help: "Total number of jobs preempted by the concurrency limit",
		},
		[]string{"model"},
	)

	// LaunchFailures counts solver binaries that could not be spawned.
	LaunchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novelas_solver_launch_failures_total",
			Help: "Total number of solver launch failures",
		},
	)

	// WorkersActive tracks the number of pool workers currently waiting on a process.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "novelas_wait_workers_active",
			Help: "Number of pool workers currently blocked on a solver process",
		},
	)

	// CacheHits counts submissions answered from the result cache.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelas_result_cache_hits_total",
			Help: "Total number of submissions answered from the result cache",
		},
		[]string{"model"},
	)
)
