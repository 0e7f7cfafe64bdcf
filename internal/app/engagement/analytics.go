package engagement

import (
	"context"
	"math"
	"time"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// ─── Analytics ──────────────────────────────────────────────────────────────

// AnalyticsDays is the width of the daily activity window, today included.
const AnalyticsDays = 7

// DayPoint is one day of prompt activity.
type DayPoint struct {
	Date    string `json:"date"`  // YYYY-MM-DD
	Label   string `json:"label"` // MM-DD
	Prompts int    `json:"prompts"`
	Energy  int    `json:"energy"`
}

// Analytics is a user's activity summary.
type Analytics struct {
	UserID            string     `json:"userId"`
	TotalPrompts      int        `json:"totalPrompts"`
	EfficientPrompts  int        `json:"efficientPrompts"`
	EfficiencyPercent int        `json:"efficiencyPercent"`
	AverageEnergy     float64    `json:"averageEnergy"`
	Days              []DayPoint `json:"days"`
}

// Summarize builds the activity summary for the AnalyticsDays UTC days
// ending on now, oldest first. Days without activity report zero.
func Summarize(userID string, st domain.UserStats, now time.Time) Analytics {
	a := Analytics{
		UserID:           userID,
		TotalPrompts:     st.TotalPrompts,
		EfficientPrompts: st.EfficientPrompts,
		AverageEnergy:    st.AverageEnergy,
		Days:             make([]DayPoint, 0, AnalyticsDays),
	}
	if st.TotalPrompts > 0 {
		a.EfficiencyPercent = int(math.Round(float64(st.EfficientPrompts) / float64(st.TotalPrompts) * 100))
	}

	today := now.UTC()
	for i := AnalyticsDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := domain.DateKey(day)
		a.Days = append(a.Days, DayPoint{
			Date:    key,
			Label:   day.Format("01-02"),
			Prompts: st.DailyPrompts[key],
			Energy:  st.DailyEnergy[key],
		})
	}
	return a
}

// Analytics returns the user's activity summary as of the engine clock.
func (e *Engine) Analytics(ctx context.Context, userID string) (Analytics, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Analytics{}, err
	}
	return Summarize(u.ID, u.Stats, e.now()), nil
}
