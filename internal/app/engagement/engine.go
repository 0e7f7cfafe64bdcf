// Package engagement is the gamification state engine.
//
// Every prompt outcome is applied to the user as one read-modify-write:
// daily stats, running average, XP award, a level-up check, the eco-streak
// and achievement progress. Unlocking any achievement awards a flat XP
// bonus. A user gains at most one level per operation; surplus XP stays
// banked until the next one. Team score changes are
// collected while the user is mutated and applied after the user record is
// saved; a team failure is reported in the Result, never as an error.
package engagement

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenpoint-eco/greenpoint/internal/app/events"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

// XP rules.
const (
	XPHighEfficiency   = 15
	XPMediumEfficiency = 10
	XPLowEfficiency    = 5
	UnlockBonusXP      = 50
	LevelGrowth        = 1.5
)

// XPFor returns the XP awarded for a prompt of the given efficiency.
func XPFor(eff domain.Efficiency) int {
	switch eff {
	case domain.EfficiencyHigh:
		return XPHighEfficiency
	case domain.EfficiencyMedium:
		return XPMediumEfficiency
	default:
		return XPLowEfficiency
	}
}

// Teams is the leaderboard surface the engine needs.
type Teams interface {
	Get(ctx context.Context, id string) (domain.Team, error)
	AdjustScore(ctx context.Context, id string, delta int) (domain.Team, error)
	Join(ctx context.Context, id string) (domain.Team, error)
}

// Result summarizes what one engine operation changed.
type Result struct {
	XPAwarded     int                       `json:"xpAwarded"`
	LevelUps      int                       `json:"levelUps"`
	Level         int                       `json:"level"`
	XP            int                       `json:"xp"`
	XPToNextLevel int                       `json:"xpToNextLevel"`
	Unlocked      []string                  `json:"unlocked"`
	EcoStreak     int                       `json:"ecoStreak"`
	TeamUpdates   []domain.TeamScoreChanged `json:"teamUpdates"`
	TeamError     string                    `json:"teamUpdateError,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides user id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// Engine applies gamification rules to users.
type Engine struct {
	store domain.Store
	teams Teams
	bus   events.Publisher
	log   *logger.Logger
	now   func() time.Time
	newID func() string
	locks sync.Map // user id → *sync.Mutex
}

// New creates an engine. bus may be nil.
func New(store domain.Store, teams Teams, bus events.Publisher, log *logger.Logger, opts ...Option) *Engine {
	if bus == nil {
		bus = events.Nop{}
	}
	e := &Engine{
		store: store,
		teams: teams,
		bus:   bus,
		log:   logger.OrNop(log).Component("engagement"),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lock(userID string) func() {
	v, _ := e.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ─── Operations ─────────────────────────────────────────────────────────────

// CreateUser onboards a new user: unlocks the welcome achievement, saves
// the user and then joins the team. The team is only joined once the user
// is saved; a failed join is reported in Result.TeamError.
func (e *Engine) CreateUser(ctx context.Context, name, teamID string) (*domain.User, Result, error) {
	name, teamID = strings.TrimSpace(name), strings.TrimSpace(teamID)
	if name == "" || teamID == "" {
		return nil, Result{}, fmt.Errorf("name and teamId: %w", domain.ErrMissingField)
	}
	if _, err := e.teams.Get(ctx, teamID); err != nil {
		return nil, Result{}, fmt.Errorf("join team: %w", err)
	}

	u := domain.NewUser(e.newID(), name, teamID, e.now().UTC())
	for _, d := range Catalog {
		u.Achievements = append(u.Achievements, d.Record())
	}

	unlock := e.lock(u.ID)
	defer unlock()

	s := e.begin(u)
	s.force(AchWelcome)
	res, err := e.commit(ctx, s)
	if err != nil {
		return nil, Result{}, err
	}
	if _, err := e.teams.Join(ctx, teamID); err != nil {
		e.log.Warn("team join failed", "user", u.ID, "team", teamID, "error", err)
		if res.TeamError == "" {
			res.TeamError = err.Error()
		}
	}
	observability.UsersOnboarded.Inc()
	e.log.Info("user onboarded", "user", u.ID, "team", teamID)
	return u, res, nil
}

// GetUser loads a user.
func (e *Engine) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return e.store.GetUser(ctx, userID)
}

// Achievements returns the full catalog merged with the user's progress.
func (e *Engine) Achievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Merge(u), nil
}

// ProcessOutcome applies one prompt outcome to the user.
func (e *Engine) ProcessOutcome(ctx context.Context, userID string, o domain.Outcome) (Result, error) {
	unlock := e.lock(userID)
	defer unlock()

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	s := e.begin(u)
	s.recordStats(o.Metrics)
	s.award(XPFor(o.Metrics.Efficiency))
	s.streak(o.EcoResponsible)
	s.increment(AchPromptMaster, 1)
	if o.Efficient() {
		s.increment(AchEfficiencyExpert, 1)
	}
	s.teamDeltas = append(s.teamDeltas, domain.TeamDelta(o.EcoResponsible))

	return e.commit(ctx, s)
}

// AddXP awards amount XP directly. Reports whether the user levelled up.
func (e *Engine) AddXP(ctx context.Context, userID string, amount int) (bool, error) {
	unlock := e.lock(userID)
	defer unlock()

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	s := e.begin(u)
	s.award(amount)
	res, err := e.commit(ctx, s)
	if err != nil {
		return false, err
	}
	return res.LevelUps > 0, nil
}

// UpdateAchievement adds increment to an achievement's progress, or unlocks
// it outright when forceUnlock is set. Unlocked achievements do not change.
func (e *Engine) UpdateAchievement(ctx context.Context, userID, id string, increment int, forceUnlock bool) (domain.Achievement, error) {
	if _, ok := Lookup(id); !ok {
		return domain.Achievement{}, fmt.Errorf("achievement %q: %w", id, domain.ErrUnknownAchievement)
	}

	unlock := e.lock(userID)
	defer unlock()

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return domain.Achievement{}, err
	}
	s := e.begin(u)
	if forceUnlock {
		s.force(id)
	} else {
		s.increment(id, increment)
	}
	if _, err := e.commit(ctx, s); err != nil {
		return domain.Achievement{}, err
	}
	return *u.Achievement(id), nil
}

// ─── Session ────────────────────────────────────────────────────────────────

// session accumulates changes to one user before they are saved.
type session struct {
	u          *domain.User
	now        time.Time
	res        Result
	events     []domain.Event
	teamDeltas []int
	log        *logger.Logger
}

func (e *Engine) begin(u *domain.User) *session {
	return &session{u: u, now: e.now().UTC(), res: Result{Unlocked: []string{}}, log: e.log}
}

func (s *session) recordStats(m domain.EnergyMetrics) {
	st := &s.u.Stats
	day := domain.DateKey(s.now)
	if st.DailyPrompts == nil {
		st.DailyPrompts = make(map[string]int)
	}
	if st.DailyEnergy == nil {
		st.DailyEnergy = make(map[string]int)
	}
	st.DailyPrompts[day]++
	st.DailyEnergy[day] += m.Usage

	st.AverageEnergy = (st.AverageEnergy*float64(st.TotalPrompts) + float64(m.Usage)) / float64(st.TotalPrompts+1)
	st.TotalPrompts++
	switch m.Efficiency {
	case domain.EfficiencyHigh:
		st.EfficientPrompts++
	case domain.EfficiencyLow:
		st.InefficientPrompts++
	}
	s.events = append(s.events, domain.UserStatsChanged{UserID: s.u.ID, Stats: *st})
}

func (s *session) award(xp int) {
	if xp <= 0 {
		return
	}
	s.u.XP += xp
	s.res.XPAwarded += xp
	s.levelCheck()
}

// levelCheck advances at most one level per session.
func (s *session) levelCheck() {
	u := s.u
	if s.res.LevelUps > 0 || u.XP < u.XPToNextLevel {
		return
	}
	u.Level++
	u.XP -= u.XPToNextLevel
	u.XPToNextLevel = int(math.Round(float64(u.XPToNextLevel) * LevelGrowth))
	s.res.LevelUps++
	s.teamDeltas = append(s.teamDeltas, domain.LevelUpTeamBonus)
	observability.LevelUps.Inc()
	s.log.Info("level up", "user", u.ID, "level", u.Level)
}

func (s *session) streak(eco bool) {
	st := &s.u.Stats
	if !eco {
		st.EcoStreak = 0
		return
	}
	st.EcoStreak++
	if st.EcoStreak == 1 {
		s.force(AchFirstEcoPrompt)
	}
	s.raiseTo(AchEcoStreak5, st.EcoStreak)
	s.raiseTo(AchEcoStreak20, st.EcoStreak)
}

// record returns the user's record for id, adding it from the catalog when
// missing. Returns nil for ids not in the catalog.
func (s *session) record(id string) *domain.Achievement {
	if a := s.u.Achievement(id); a != nil {
		return a
	}
	d, ok := Lookup(id)
	if !ok {
		return nil
	}
	s.u.Achievements = append(s.u.Achievements, d.Record())
	return &s.u.Achievements[len(s.u.Achievements)-1]
}

func (s *session) increment(id string, n int) {
	a := s.record(id)
	if a == nil || a.Unlocked() || !a.HasProgress() || n <= 0 {
		return
	}
	*a.Progress = min(*a.Progress+n, *a.MaxProgress)
	if *a.Progress >= *a.MaxProgress {
		s.unlock(a)
	}
}

// raiseTo sets progress to at least min(value, max). Never decreases.
func (s *session) raiseTo(id string, value int) {
	a := s.record(id)
	if a == nil || a.Unlocked() || !a.HasProgress() {
		return
	}
	*a.Progress = max(*a.Progress, min(value, *a.MaxProgress))
	if *a.Progress >= *a.MaxProgress {
		s.unlock(a)
	}
}

func (s *session) force(id string) {
	if a := s.record(id); a != nil {
		s.unlock(a)
	}
}

func (s *session) unlock(a *domain.Achievement) {
	if a.Unlocked() {
		return
	}
	at := s.now
	a.UnlockedAt = &at
	if a.HasProgress() {
		*a.Progress = *a.MaxProgress
	}
	s.res.Unlocked = append(s.res.Unlocked, a.ID)
	s.events = append(s.events, domain.AchievementUnlocked{UserID: s.u.ID, AchievementID: a.ID, AchievementName: a.Title})
	observability.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
	s.log.Info("achievement unlocked", "user", s.u.ID, "achievement", a.ID)

	s.award(UnlockBonusXP)
}

// commit saves the user, publishes queued events and applies team deltas.
func (e *Engine) commit(ctx context.Context, s *session) (Result, error) {
	u := s.u
	if err := e.store.PutUser(ctx, u); err != nil {
		return Result{}, fmt.Errorf("save user %s: %w", u.ID, err)
	}
	for _, ev := range s.events {
		e.bus.Publish(ev)
	}

	res := s.res
	res.TeamUpdates = []domain.TeamScoreChanged{}
	for _, delta := range s.teamDeltas {
		team, err := e.teams.AdjustScore(ctx, u.TeamID, delta)
		if err != nil {
			res.TeamError = err.Error()
			e.log.Warn("team score update failed", "user", u.ID, "team", u.TeamID, "error", err)
			break
		}
		res.TeamUpdates = append(res.TeamUpdates, domain.TeamScoreChanged{
			TeamID: team.ID, NewScore: team.Score, PointChange: delta,
		})
	}

	res.Level = u.Level
	res.XP = u.XP
	res.XPToNextLevel = u.XPToNextLevel
	res.EcoStreak = u.Stats.EcoStreak
	e.bus.Publish(domain.UserDataChanged{UserID: u.ID, Level: u.Level, XP: u.XP, XPToNextLevel: u.XPToNextLevel})
	return res, nil
}
