package engagement

import (
	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// ─── Achievement Catalog ────────────────────────────────────────────────────

// Achievement ids.
const (
	AchWelcome          = "welcome"
	AchFirstEcoPrompt   = "first-eco-prompt"
	AchEcoStreak5       = "eco-streak-5"
	AchEcoStreak20      = "eco-streak-20"
	AchPromptMaster     = "prompt-master"
	AchEfficiencyExpert = "efficiency-expert"
)

// Definition is a catalog entry. MaxProgress 0 means a one-shot achievement.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	MaxProgress int
}

// Catalog lists every achievement a user can earn, in display order.
var Catalog = []Definition{
	{ID: AchWelcome, Title: "Welcome Aboard", Description: "Join a team and start your eco journey", Icon: "sprout"},
	{ID: AchFirstEcoPrompt, Title: "First Eco Prompt", Description: "Send your first eco-responsible prompt", Icon: "leaf"},
	{ID: AchEcoStreak5, Title: "Green Streak", Description: "Send 5 eco-responsible prompts in a row", Icon: "flame", MaxProgress: 5},
	{ID: AchEcoStreak20, Title: "Eco Champion", Description: "Send 20 eco-responsible prompts in a row", Icon: "trophy", MaxProgress: 20},
	{ID: AchPromptMaster, Title: "Prompt Master", Description: "Submit 50 prompts", Icon: "message-square", MaxProgress: 50},
	{ID: AchEfficiencyExpert, Title: "Efficiency Expert", Description: "Write 10 highly efficient prompts", Icon: "zap", MaxProgress: 10},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Definition, bool) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Record builds a fresh, locked user record for d.
func (d Definition) Record() domain.Achievement {
	a := domain.Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
	}
	if d.MaxProgress > 0 {
		progress, limit := 0, d.MaxProgress
		a.Progress = &progress
		a.MaxProgress = &limit
	}
	return a
}

// Merge returns the full catalog with the user's progress applied.
// Achievements the user has never touched are returned locked.
func Merge(u *domain.User) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(Catalog))
	for _, d := range Catalog {
		if a := u.Achievement(d.ID); a != nil {
			out = append(out, *a)
			continue
		}
		out = append(out, d.Record())
	}
	return out
}
