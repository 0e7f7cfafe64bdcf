// Package leaderboard owns the shared team list: seeding, membership and
// score adjustments. All mutations in one process go through a single
// mutex; the backing store itself is last-write-wins.
package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/greenpoint-eco/greenpoint/internal/app/events"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

// Service manages teams.
type Service struct {
	mu    sync.Mutex
	store domain.Store
	bus   events.Publisher
	log   *logger.Logger
}

// New creates a leaderboard service. bus may be nil.
func New(store domain.Store, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Service{
		store: store,
		bus:   bus,
		log:   logger.OrNop(log).Component("leaderboard"),
	}
}

// Seed writes the default teams when the store has none.
// Returns true when the seed was written.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams, err := s.store.GetTeams(ctx)
	if err == nil {
		s.observe(teams)
		return false, nil
	}
	if !errors.Is(err, domain.ErrTeamsNotInitialized) {
		return false, err
	}
	teams = domain.DefaultTeams()
	if err := s.store.PutTeams(ctx, teams); err != nil {
		return false, fmt.Errorf("seed teams: %w", err)
	}
	s.observe(teams)
	s.log.Info("seeded default teams", "count", len(teams))
	return true, nil
}

// List returns all teams sorted by score descending, ties by id.
func (s *Service) List(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.store.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	Sort(teams)
	return teams, nil
}

// Sort orders teams by score descending, ties by id ascending.
func Sort(teams []domain.Team) {
	slices.SortStableFunc(teams, func(a, b domain.Team) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Get returns one team.
func (s *Service) Get(ctx context.Context, id string) (domain.Team, error) {
	teams, err := s.store.GetTeams(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	i := indexOf(teams, id)
	if i < 0 {
		return domain.Team{}, fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
	}
	return teams[i], nil
}

// AdjustScore adds delta to a team's score, flooring at zero.
// An unknown id fails with domain.ErrTeamNotFound and writes nothing.
func (s *Service) AdjustScore(ctx context.Context, id string, delta int) (domain.Team, error) {
	team, err := s.mutate(ctx, id, func(t *domain.Team) {
		t.Score = domain.ApplyScoreDelta(t.Score, delta)
	})
	if err != nil {
		return domain.Team{}, err
	}
	s.bus.Publish(domain.TeamScoreChanged{TeamID: team.ID, NewScore: team.Score, PointChange: delta})
	s.log.Debug("team score adjusted", "team", team.ID, "delta", delta, "score", team.Score)
	return team, nil
}

// Join increments a team's member count.
func (s *Service) Join(ctx context.Context, id string) (domain.Team, error) {
	team, err := s.mutate(ctx, id, func(t *domain.Team) { t.MemberCount++ })
	if err != nil {
		return domain.Team{}, err
	}
	s.log.Info("member joined team", "team", team.ID, "members", team.MemberCount)
	return team, nil
}

// Refresh reloads the teams and updates the leaderboard gauges.
func (s *Service) Refresh(ctx context.Context) error {
	teams, err := s.store.GetTeams(ctx)
	if err != nil {
		return err
	}
	s.observe(teams)
	return nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.Team)) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams, err := s.store.GetTeams(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	i := indexOf(teams, id)
	if i < 0 {
		return domain.Team{}, fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
	}
	fn(&teams[i])
	if err := s.store.PutTeams(ctx, teams); err != nil {
		return domain.Team{}, fmt.Errorf("save teams: %w", err)
	}
	s.observe(teams[i : i+1])
	return teams[i], nil
}

func (s *Service) observe(teams []domain.Team) {
	for _, t := range teams {
		observability.TeamScore.WithLabelValues(t.ID).Set(float64(t.Score))
		observability.TeamMembers.WithLabelValues(t.ID).Set(float64(t.MemberCount))
	}
}

func indexOf(teams []domain.Team, id string) int {
	return slices.IndexFunc(teams, func(t domain.Team) bool { return t.ID == id })
}
