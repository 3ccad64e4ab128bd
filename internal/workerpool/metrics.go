package workerpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sprawlstats_worker_jobs_total",
		Help: "Offloaded analysis jobs by outcome",
	}, []string{"outcome"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sprawlstats_worker_job_duration_seconds",
		Help:    "Time spent executing an offloaded job",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sprawlstats_worker_queue_depth",
		Help: "Jobs waiting for a worker",
	})

	pendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sprawlstats_worker_pending_requests",
		Help: "Requests awaiting a response",
	})

	detachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sprawlstats_worker_detached_total",
		Help: "Requests whose caller stopped waiting before the worker replied",
	})
)
