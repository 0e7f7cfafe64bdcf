package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Store errors
	ErrUserNotFound        = errors.New("user not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamsNotInitialized = errors.New("teams not initialized")

	// Input errors
	ErrEmptyPrompt        = errors.New("prompt is empty")
	ErrMissingField       = errors.New("missing required field")
	ErrUnknownAchievement = errors.New("unknown achievement")

	// Classifier errors (never surfaced to users, they trigger the heuristic fallback)
	ErrClassifierUnavailable   = errors.New("classifier unavailable")
	ErrMalformedClassification = errors.New("classifier returned a malformed payload")
)
