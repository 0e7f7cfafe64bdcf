// Package observability holds the Prometheus metrics for GreenPoint.
//
// Metrics cover the prompt pipeline (evaluations, blocks, classifier
// fallbacks), gamification progress (level-ups, unlocks) and the team
// leaderboard. They are exposed at /metrics by the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Prompt Pipeline Metrics ────────────────────────────────────────────────

// PromptsEvaluated counts estimator results by efficiency tier and source.
var PromptsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "prompts",
	Name:      "evaluated_total",
	Help:      "Total prompts evaluated by efficiency tier and estimator source.",
}, []string{"efficiency", "source"})

// PromptsBlocked counts submissions short-circuited by the submit gate.
var PromptsBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "prompts",
	Name:      "blocked_total",
	Help:      "Total prompts blocked at submission by reason.",
}, []string{"reason"})

// PromptEnergyUsage tracks the distribution of usage scores.
var PromptEnergyUsage = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "greenpoint",
	Subsystem: "prompts",
	Name:      "energy_usage",
	Help:      "Estimated energy usage score (0-100) per prompt.",
	Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
})

// ─── Classifier Metrics ─────────────────────────────────────────────────────

// ClassifierFallbacks counts heuristic fallbacks by reason.
var ClassifierFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "classifier",
	Name:      "fallbacks_total",
	Help:      "Total classifier failures recovered by the heuristic estimator.",
}, []string{"reason"})

// ClassifierLatency tracks classifier round-trip time in seconds.
var ClassifierLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "greenpoint",
	Subsystem: "classifier",
	Name:      "latency_seconds",
	Help:      "Classifier call latency in seconds.",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// ─── Gamification Metrics ───────────────────────────────────────────────────

// LevelUps counts level-up transitions.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "engagement",
	Name:      "level_ups_total",
	Help:      "Total level-ups across all users.",
})

// AchievementsUnlocked counts unlocks by achievement id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "engagement",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievement unlocks by achievement id.",
}, []string{"achievement"})

// UsersOnboarded counts users created through onboarding.
var UsersOnboarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "engagement",
	Name:      "users_onboarded_total",
	Help:      "Total users created through onboarding.",
})

// ─── Leaderboard Metrics ────────────────────────────────────────────────────

// TeamScore tracks the current score of each team.
var TeamScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "greenpoint",
	Subsystem: "leaderboard",
	Name:      "team_score",
	Help:      "Current team score.",
}, []string{"team"})

// TeamMembers tracks the member count of each team.
var TeamMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "greenpoint",
	Subsystem: "leaderboard",
	Name:      "team_members",
	Help:      "Current team member count.",
}, []string{"team"})

// ─── Bus Metrics ────────────────────────────────────────────────────────────

// EventsPublished counts bus events by kind.
var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Total update events published by kind.",
}, []string{"kind"})

// EventsDropped counts events dropped for slow streaming subscribers.
var EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "events",
	Name:      "dropped_total",
	Help:      "Total events dropped because a streaming subscriber was too slow.",
})

// EventHandlerPanics counts subscriber handlers that panicked during delivery.
var EventHandlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "greenpoint",
	Subsystem: "events",
	Name:      "handler_panics_total",
	Help:      "Total subscriber panics recovered during event delivery, by kind.",
}, []string{"kind"})
