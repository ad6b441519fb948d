package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ContributionEvents counts successful contribution lifecycle actions
	// (shared, edited, claimed, collected, stopped).
	ContributionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_contribution_events_total",
		Help: "Contribution lifecycle actions by action",
	}, []string{"action"})

	// ContributionRejections counts reconciliation requests refused by the core, by error kind.
	ContributionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_contribution_rejections_total",
		Help: "Rejected contribution actions by action and reason",
	}, []string{"action", "reason"})

	// PantryRemovals counts pantry rows removed by bulk delete and clear-all.
	PantryRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_pantry_items_removed_total",
		Help: "Pantry items removed by bulk operations",
	}, []string{"operation"})

	RecipeGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_recipe_generations_total",
		Help: "Recipe generation calls by outcome",
	}, []string{"outcome"})

	RecipeGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "larder_recipe_generation_duration_seconds",
		Help:    "Latency of the upstream recipe generation call",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "larder_live_connections",
		Help: "Open /ws change-notification connections",
	})

	// LiveDropped counts notifications skipped because a subscriber was not keeping up.
	LiveDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "larder_live_notifications_dropped_total",
		Help: "Change notifications dropped for slow subscribers",
	})

	BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_backup_runs_total",
		Help: "Database backup attempts by outcome",
	}, []string{"outcome"})
)

// ObserveGeneration records one recipe generation call.
func ObserveGeneration(outcome string, started time.Time) {
	RecipeGenerations.WithLabelValues(outcome).Inc()
	RecipeGenerationDuration.Observe(time.Since(started).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
