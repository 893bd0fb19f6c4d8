package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain metrics.
var (
	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hub",
			Name:      "search_results",
			Help:      "Number of ranked results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	WorkspaceMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "workspace_mutations_total",
			Help:      "Workspace intents applied, by operation and whether state changed",
		},
		[]string{"op", "changed"},
	)

	SnapshotWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "snapshot_writes_total",
			Help:      "Workspace snapshot writes by result",
		},
		[]string{"result"}, // "ok" / "error"
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hub",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory",
		},
	)

	CorpusDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hub",
			Name:      "corpus_documents",
			Help:      "Documents in the loaded corpus by source",
		},
		[]string{"source"},
	)

	CorpusReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "corpus_reloads_total",
			Help:      "Corpus reload attempts by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "rate_limited_total",
			Help:      "API requests rejected by the rate limiter",
		},
	)
)

var registerOnce sync.Once

// Register registers every hub collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			SearchResults,
			WorkspaceMutationsTotal,
			SnapshotWritesTotal,
			ActiveSessions,
			CorpusDocuments,
			CorpusReloadsTotal,
			RateLimitedTotal,
		)
	})
}

// Result maps an error to the "ok" / "error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
