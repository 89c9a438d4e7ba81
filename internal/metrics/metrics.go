// Package metrics declares the Prometheus collectors of the recommender.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RankingPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommender_ranking_passes_total",
		Help: "Number of ranking passes computed.",
	})

	RankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_ranking_duration_seconds",
		Help:    "Time spent in a single ranking pass.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	RankedCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_ranked_candidates",
		Help:    "Candidates surviving filtering in a ranking pass.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_refreshes_total",
		Help: "Refresh requests by outcome (applied, superseded, cancelled).",
	}, []string{"outcome"})

	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_search_requests_total",
		Help: "Free-text searches by outcome (ok, error, stale).",
	}, []string{"outcome"})

	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_persistence_failures_total",
		Help: "Best-effort record writes or reads that failed.",
	}, []string{"record", "op"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recommender_active_sessions",
		Help: "Sessions currently held in memory.",
	})
)
