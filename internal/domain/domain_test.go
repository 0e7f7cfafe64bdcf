package domain

import (
	"testing"
	"time"
)

// ─── Efficiency Tests ───────────────────────────────────────────────────────

func TestEfficiencyForUsage(t *testing.T) {
	tests := []struct {
		usage int
		want  Efficiency
	}{
		{0, EfficiencyHigh},
		{29, EfficiencyHigh},
		{30, EfficiencyMedium},
		{59, EfficiencyMedium},
		{60, EfficiencyLow},
		{100, EfficiencyLow},
	}
	for _, tt := range tests {
		if got := EfficiencyForUsage(tt.usage); got != tt.want {
			t.Errorf("EfficiencyForUsage(%d) = %q, want %q", tt.usage, got, tt.want)
		}
	}
}

func TestEfficiencyForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Efficiency
	}{
		{100, EfficiencyHigh},
		{70, EfficiencyHigh},
		{69, EfficiencyMedium},
		{40, EfficiencyMedium},
		{39, EfficiencyLow},
		{0, EfficiencyLow},
	}
	for _, tt := range tests {
		if got := EfficiencyForScore(tt.score); got != tt.want {
			t.Errorf("EfficiencyForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestClampPercent(t *testing.T) {
	if ClampPercent(-5) != 0 {
		t.Error("negative should clamp to 0")
	}
	if ClampPercent(140) != 100 {
		t.Error("overflow should clamp to 100")
	}
	if ClampPercent(42) != 42 {
		t.Error("in-range value should pass through")
	}
}

// ─── User Tests ─────────────────────────────────────────────────────────────

func TestNewUser(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser("u1", "Ada", "team-1", now)

	if u.Level != 1 || u.XP != 0 || u.XPToNextLevel != 100 {
		t.Errorf("unexpected starting progression: level=%d xp=%d next=%d", u.Level, u.XP, u.XPToNextLevel)
	}
	if u.Stats.DailyPrompts == nil || u.Stats.DailyEnergy == nil {
		t.Error("daily maps should be initialized")
	}
	if !u.JoinDate.Equal(now) {
		t.Errorf("JoinDate = %v, want %v", u.JoinDate, now)
	}
	if u.Achievement("missing") != nil {
		t.Error("Achievement() should return nil for unknown id")
	}
}

func TestUser_AchievementReturnsPointer(t *testing.T) {
	u := NewUser("u1", "Ada", "team-1", time.Now())
	u.Achievements = append(u.Achievements, Achievement{ID: "a"})

	a := u.Achievement("a")
	now := time.Now()
	a.UnlockedAt = &now

	if !u.Achievements[0].Unlocked() {
		t.Error("mutation through Achievement() should be visible on the user")
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	if got := DateKey(ts); got != "2026-10-19" {
		t.Errorf("DateKey() = %q, want UTC date 2026-10-19", got)
	}
}

// ─── Event Tests ────────────────────────────────────────────────────────────

func TestEventKinds(t *testing.T) {
	events := []struct {
		ev   Event
		want EventKind
	}{
		{UserDataChanged{}, KindUserDataChanged},
		{UserStatsChanged{}, KindUserStatsChanged},
		{AchievementUnlocked{}, KindAchievementUnlocked},
		{TeamScoreChanged{}, KindTeamScoreChanged},
	}
	seen := make(map[EventKind]bool)
	for _, tt := range events {
		if got := tt.ev.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
		seen[tt.want] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct kinds, got %d", len(seen))
	}
}

// ─── Error Tests ────────────────────────────────────────────────────────────

func TestSentinelErrors(t *testing.T) {
	errors := []struct {
		name string
		err  error
	}{
		{"ErrUserNotFound", ErrUserNotFound},
		{"ErrTeamNotFound", ErrTeamNotFound},
		{"ErrTeamsNotInitialized", ErrTeamsNotInitialized},
		{"ErrEmptyPrompt", ErrEmptyPrompt},
		{"ErrClassifierUnavailable", ErrClassifierUnavailable},
		{"ErrMalformedClassification", ErrMalformedClassification},
	}

	for _, tt := range errors {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s.Error() is empty", tt.name)
			}
		})
	}
}
