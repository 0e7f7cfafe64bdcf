// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture and depends on nothing.
package domain

import (
	"time"
)

// ─── Efficiency ─────────────────────────────────────────────────────────────

// Efficiency is the three-tier label derived from an energy-usage score.
type Efficiency string

const (
	EfficiencyHigh   Efficiency = "high"
	EfficiencyMedium Efficiency = "medium"
	EfficiencyLow    Efficiency = "low"
)

// EfficiencyForUsage maps a 0–100 usage score to an efficiency tier.
// <30 high, <60 medium, otherwise low.
func EfficiencyForUsage(usage int) Efficiency {
	switch {
	case usage < 30:
		return EfficiencyHigh
	case usage < 60:
		return EfficiencyMedium
	default:
		return EfficiencyLow
	}
}

// EfficiencyForScore maps a classifier score (higher is greener) to a tier.
// ≥70 high, ≥40 medium, otherwise low.
func EfficiencyForScore(score int) Efficiency {
	switch {
	case score >= 70:
		return EfficiencyHigh
	case score >= 40:
		return EfficiencyMedium
	default:
		return EfficiencyLow
	}
}

// ClampPercent clamps v into [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// EnergyMetrics is the transient per-submission estimate.
type EnergyMetrics struct {
	Usage       int        `json:"usage"`
	Efficiency  Efficiency `json:"efficiency"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// ─── Users ──────────────────────────────────────────────────────────────────

// UserStats aggregates a user's prompt history.
type UserStats struct {
	TotalPrompts       int            `json:"totalPrompts"`
	EfficientPrompts   int            `json:"efficientPrompts"`
	InefficientPrompts int            `json:"inefficientPrompts"`
	AverageEnergy      float64        `json:"averageEnergy"`
	DailyPrompts       map[string]int `json:"dailyPrompts"`
	DailyEnergy        map[string]int `json:"dailyEnergy"`
	EcoStreak          int            `json:"ecoResponsibleStreak"`
}

// User is a single GreenPoint player. A user gains at most one level per
// event, so XP may exceed XPToNextLevel until the next event.
type User struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	TeamID        string        `json:"teamId"`
	Level         int           `json:"level"`
	XP            int           `json:"xp"`
	XPToNextLevel int           `json:"xpToNextLevel"`
	JoinDate      time.Time     `json:"joinDate"`
	Stats         UserStats     `json:"stats"`
	Achievements  []Achievement `json:"achievements"`
}

// Starting progression for a freshly onboarded user.
const (
	StartingLevel         = 1
	StartingXPToNextLevel = 100
)

// NewUser builds a level-1 user with empty stats.
func NewUser(id, name, teamID string, now time.Time) *User {
	return &User{
		ID:            id,
		Name:          name,
		TeamID:        teamID,
		Level:         StartingLevel,
		XPToNextLevel: StartingXPToNextLevel,
		JoinDate:      now,
		Stats: UserStats{
			DailyPrompts: make(map[string]int),
			DailyEnergy:  make(map[string]int),
		},
		Achievements: []Achievement{},
	}
}

// Achievement returns a pointer to the user's record for id, or nil.
func (u *User) Achievement(id string) *Achievement {
	for i := range u.Achievements {
		if u.Achievements[i].ID == id {
			return &u.Achievements[i]
		}
	}
	return nil
}

// ─── Achievements ───────────────────────────────────────────────────────────

// Achievement is an unlockable goal. Progress/MaxProgress are nil for
// one-shot achievements. UnlockedAt is set once and never cleared.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Progress    *int       `json:"progress,omitempty"`
	MaxProgress *int       `json:"maxProgress,omitempty"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// Unlocked reports whether the achievement has been unlocked.
func (a Achievement) Unlocked() bool { return a.UnlockedAt != nil }

// HasProgress reports whether the achievement tracks progress.
func (a Achievement) HasProgress() bool { return a.Progress != nil && a.MaxProgress != nil }

// ─── Chat ───────────────────────────────────────────────────────────────────

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is an immutable history record.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metrics   *EnergyMetrics `json:"metrics,omitempty"`
}

// ─── Validation ─────────────────────────────────────────────────────────────

// ValidationStatus is the advisory state of a prompt being typed.
type ValidationStatus string

const (
	ValidationIdle    ValidationStatus = "idle"
	ValidationValid   ValidationStatus = "valid"
	ValidationWarning ValidationStatus = "warning"
	ValidationError   ValidationStatus = "error"
)

// ValidationResult is the outcome of the advisory prompt check.
type ValidationResult struct {
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
}

// ─── Evaluation ─────────────────────────────────────────────────────────────

// Classification is what the external scoring collaborator returns.
type Classification struct {
	IsEcoResponsible bool   `json:"isEcoResponsible"`
	Score            int    `json:"score"`
	Explanation      string `json:"explanation"`
	Response         string `json:"response"`
}

// EvaluationSource records which estimator strategy produced a result.
type EvaluationSource string

const (
	SourceHeuristic  EvaluationSource = "heuristic"
	SourceClassifier EvaluationSource = "classifier"
	SourceGate       EvaluationSource = "gate"
)

// Evaluation is the estimator's full answer for one prompt.
type Evaluation struct {
	Metrics        EnergyMetrics    `json:"metrics"`
	Classification Classification   `json:"evaluation"`
	Source         EvaluationSource `json:"source"`
	// FallbackReason is set when the classifier failed and the heuristic
	// answered instead.
	FallbackReason string `json:"-"`
}

// Outcome is the single event that drives the gamification engine.
type Outcome struct {
	Metrics        EnergyMetrics
	EcoResponsible bool
}

// Efficient reports whether the outcome counts as an efficient prompt.
func (o Outcome) Efficient() bool { return o.Metrics.Efficiency == EfficiencyHigh }

// DateKey formats t as the per-day stats key (YYYY-MM-DD, UTC).
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
