package domain

// ─── Update Events ──────────────────────────────────────────────────────────
// Closed set of change notifications. Only the types in this file implement
// Event; consumers switch on the concrete type.

// EventKind names an event on the wire.
type EventKind string

const (
	KindUserDataChanged     EventKind = "user-data-updated"
	KindUserStatsChanged    EventKind = "user-stats-updated"
	KindAchievementUnlocked EventKind = "achievement-unlocked"
	KindTeamScoreChanged    EventKind = "team-score-updated"
)

// Event is a change notification published on the update bus.
type Event interface {
	Kind() EventKind
	sealed()
}

// UserDataChanged signals that a user's profile (level, XP) moved.
type UserDataChanged struct {
	UserID        string `json:"userId"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	XPToNextLevel int    `json:"xpToNextLevel"`
}

// UserStatsChanged carries the user's refreshed aggregate stats.
type UserStatsChanged struct {
	UserID string    `json:"userId"`
	Stats  UserStats `json:"stats"`
}

// AchievementUnlocked is published once per unlock.
type AchievementUnlocked struct {
	UserID          string `json:"userId"`
	AchievementID   string `json:"achievementId"`
	AchievementName string `json:"achievementName"`
}

// TeamScoreChanged is published after every successful score adjustment.
type TeamScoreChanged struct {
	TeamID      string `json:"teamId"`
	NewScore    int    `json:"newScore"`
	PointChange int    `json:"pointChange"`
}

func (UserDataChanged) Kind() EventKind     { return KindUserDataChanged }
func (UserStatsChanged) Kind() EventKind    { return KindUserStatsChanged }
func (AchievementUnlocked) Kind() EventKind { return KindAchievementUnlocked }
func (TeamScoreChanged) Kind() EventKind    { return KindTeamScoreChanged }

func (UserDataChanged) sealed()     {}
func (UserStatsChanged) sealed()    {}
func (AchievementUnlocked) sealed() {}
func (TeamScoreChanged) sealed()    {}
