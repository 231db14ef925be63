// Package metrics provides the centralized Prometheus metrics registry for the analysis engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	AnalysisCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "analysis_cycles_total",
		Help:      "Total number of completed analysis cycles",
	})
	MatchesAnalyzedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "matches_analyzed_total",
		Help:      "Total number of match snapshots analyzed",
	})
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "recommendations_total",
		Help:      "Total number of bet recommendations surfaced",
	}, []string{"market", "confidence_label"})
	AutoBettableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "auto_bettable_recommendations_total",
		Help:      "Total number of recommendations flagged auto-bettable",
	})
	SnapshotsReceivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "snapshots_received_total",
		Help:      "Total number of match snapshots received from the feed",
	})
	SnapshotsMergedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "snapshots_merged_total",
		Help:      "Total number of cross-source snapshot merges",
	})
	FeedReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "feed_reconnects_total",
		Help:      "Total number of feed reconnection attempts",
	})
	RatingsRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goal_edge",
		Name:      "ratings_refreshes_total",
		Help:      "Total number of team ratings refreshes",
	}, []string{"status"})
)

// Gauge metrics
var (
	LiveMatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goal_edge",
		Name:      "live_matches",
		Help:      "Number of live matches currently tracked by the feed",
	})
	RatedTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goal_edge",
		Name:      "rated_teams",
		Help:      "Number of teams with a non-default rating",
	})
	LastCycleRecommendations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goal_edge",
		Name:      "last_cycle_recommendations",
		Help:      "Recommendations surfaced in the most recent analysis cycle",
	})
)

// Histogram metrics
var (
	AnalysisCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goal_edge",
		Name:      "analysis_cycle_duration_seconds",
		Help:      "Duration of one full analysis cycle in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	RatingsRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goal_edge",
		Name:      "ratings_refresh_duration_seconds",
		Help:      "Duration of a team ratings refresh in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(AnalysisCyclesTotal)
		registry.MustRegister(MatchesAnalyzedTotal)
		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(AutoBettableTotal)
		registry.MustRegister(SnapshotsReceivedTotal)
		registry.MustRegister(SnapshotsMergedTotal)
		registry.MustRegister(FeedReconnectsTotal)
		registry.MustRegister(RatingsRefreshesTotal)

		// Register gauge metrics
		registry.MustRegister(LiveMatches)
		registry.MustRegister(RatedTeams)
		registry.MustRegister(LastCycleRecommendations)

		// Register histogram metrics
		registry.MustRegister(AnalysisCycleDuration)
		registry.MustRegister(RatingsRefreshDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAnalysisCycle records one completed analysis cycle.
func RecordAnalysisCycle(durationSeconds float64, recommendations int) {
	AnalysisCyclesTotal.Inc()
	AnalysisCycleDuration.Observe(durationSeconds)
	LastCycleRecommendations.Set(float64(recommendations))
}

// RecordMatchAnalyzed records one analyzed match snapshot.
func RecordMatchAnalyzed() {
	MatchesAnalyzedTotal.Inc()
}

// RecordRecommendation records one surfaced recommendation.
func RecordRecommendation(market, confidenceLabel string, autoBettable bool) {
	RecommendationsTotal.WithLabelValues(market, confidenceLabel).Inc()
	if autoBettable {
		AutoBettableTotal.Inc()
	}
}

// RecordSnapshotReceived records one snapshot received from the feed.
func RecordSnapshotReceived() {
	SnapshotsReceivedTotal.Inc()
}

// RecordSnapshotMerged records one cross-source snapshot merge.
func RecordSnapshotMerged() {
	SnapshotsMergedTotal.Inc()
}

// RecordFeedReconnect records one feed reconnection attempt.
func RecordFeedReconnect() {
	FeedReconnectsTotal.Inc()
}

// RecordRatingsRefresh records a ratings refresh outcome.
func RecordRatingsRefresh(durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	RatingsRefreshesTotal.WithLabelValues(status).Inc()
	RatingsRefreshDuration.Observe(durationSeconds)
}

// UpdateLiveMatches updates the live match gauge.
func UpdateLiveMatches(count int) {
	LiveMatches.Set(float64(count))
}

// UpdateRatedTeams updates the rated teams gauge.
func UpdateRatedTeams(count int) {
	RatedTeams.Set(float64(count))
}
