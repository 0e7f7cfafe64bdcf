package domain

// ─── Team Types ─────────────────────────────────────────────────────────────
// Teams compete on a shared leaderboard. Scores move with every member's
// prompt outcome and level-up bonus; they never drop below zero.

// Team is a leaderboard entry.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Score       int    `json:"score"`
	MemberCount int    `json:"memberCount"`
	Logo        string `json:"logo"`
}

// Score deltas applied to a member's team.
const (
	EcoResponsibleBonus   = 10
	NotEcoResponsibleCost = -10
	LevelUpTeamBonus      = 50
)

// TeamDelta returns the per-outcome team score change.
func TeamDelta(ecoResponsible bool) int {
	if ecoResponsible {
		return EcoResponsibleBonus
	}
	return NotEcoResponsibleCost
}

// ApplyScoreDelta returns score+delta floored at zero.
func ApplyScoreDelta(score, delta int) int {
	score += delta
	if score < 0 {
		return 0
	}
	return score
}

// DefaultTeams returns the teams seeded into an empty store.
func DefaultTeams() []Team {
	return []Team{
		{ID: "team-1", Name: "EcoCoders", Color: "#22c55e", Logo: "leaf"},
		{ID: "team-2", Name: "SustainTech", Color: "#0ea5e9", Logo: "droplets"},
		{ID: "team-3", Name: "GreenBytes", Color: "#a855f7", Logo: "cpu"},
		{ID: "team-4", Name: "EarthPrompt", Color: "#f97316", Logo: "globe"},
		{ID: "team-5", Name: "DataSavers", Color: "#ec4899", Logo: "save"},
	}
}
