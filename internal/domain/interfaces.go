package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Store abstracts the shared record store. There are no transactions:
// every mutation is a read-modify-write at single-record granularity.
type Store interface {
	// GetUser returns ErrUserNotFound when no record exists.
	GetUser(ctx context.Context, id string) (*User, error)
	PutUser(ctx context.Context, u *User) error

	// GetTeams returns ErrTeamsNotInitialized when the team set is absent.
	GetTeams(ctx context.Context) ([]Team, error)
	PutTeams(ctx context.Context, teams []Team) error

	AppendMessage(ctx context.Context, userID string, m ChatMessage) error
	ListMessages(ctx context.Context, userID string) ([]ChatMessage, error)
	ClearMessages(ctx context.Context, userID string) error
}

// Classifier abstracts the external prompt-scoring model.
// Any returned error means "unavailable"; callers must not treat it as fatal.
type Classifier interface {
	Evaluate(ctx context.Context, prompt string) (Classification, error)
}
