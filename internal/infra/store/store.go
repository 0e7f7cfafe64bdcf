// Package store implements domain.Store as JSON records over a key-value
// backend. Backends only need Get/Set/Delete; there are no transactions,
// so concurrent writers to the same key are last-write-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// ErrKeyNotFound is returned by KV.Get when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KV is the minimal key-value contract every backend implements.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ─── Keys ───────────────────────────────────────────────────────────────────

const (
	TeamsKey      = "teams"
	userPrefix    = "greenpoint_user:"
	messagePrefix = "greenpoint_messages:"
)

// UserKey returns the record key for a user.
func UserKey(id string) string { return userPrefix + id }

// MessagesKey returns the record key for a user's chat history.
func MessagesKey(userID string) string { return messagePrefix + userID }

// ─── Store ──────────────────────────────────────────────────────────────────

// Store is a domain.Store backed by a KV.
type Store struct {
	kv KV
}

var _ domain.Store = (*Store)(nil)

// New wraps a KV backend.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Close releases the backend.
func (s *Store) Close() error { return s.kv.Close() }

// GetUser loads a user record.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.getJSON(ctx, UserKey(id), &u); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, fmt.Errorf("user %q: %w", id, domain.ErrUserNotFound)
		}
		return nil, err
	}
	if u.Stats.DailyPrompts == nil {
		u.Stats.DailyPrompts = make(map[string]int)
	}
	if u.Stats.DailyEnergy == nil {
		u.Stats.DailyEnergy = make(map[string]int)
	}
	return &u, nil
}

// PutUser overwrites a user record.
func (s *Store) PutUser(ctx context.Context, u *domain.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("put user: %w", domain.ErrMissingField)
	}
	return s.setJSON(ctx, UserKey(u.ID), u)
}

// GetTeams loads the full team set.
func (s *Store) GetTeams(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	if err := s.getJSON(ctx, TeamsKey, &teams); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrTeamsNotInitialized
		}
		return nil, err
	}
	return teams, nil
}

// PutTeams overwrites the full team set.
func (s *Store) PutTeams(ctx context.Context, teams []domain.Team) error {
	if teams == nil {
		teams = []domain.Team{}
	}
	return s.setJSON(ctx, TeamsKey, teams)
}

// AppendMessage adds m to the end of a user's history.
func (s *Store) AppendMessage(ctx context.Context, userID string, m domain.ChatMessage) error {
	msgs, err := s.ListMessages(ctx, userID)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, MessagesKey(userID), append(msgs, m))
}

// ListMessages returns a user's history, oldest first.
func (s *Store) ListMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	if err := s.getJSON(ctx, MessagesKey(userID), &msgs); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []domain.ChatMessage{}, nil
		}
		return nil, err
	}
	return msgs, nil
}

// ClearMessages drops a user's history.
func (s *Store) ClearMessages(ctx context.Context, userID string) error {
	return s.kv.Delete(ctx, MessagesKey(userID))
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
