// Package validation classifies raw prompt text before it reaches the
// estimator.
//
// Validate is the advisory hint re-evaluated on every keystroke. Gate is the
// hard check applied at submit time: it blocks prompts outside the allowed
// length and prompts containing politeness formulas, substituting a canned
// low-efficiency answer.
package validation

import (
	"regexp"
	"strings"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// Word-count thresholds.
const (
	MinWords        = 6
	OptimalMinWords = 15
	OptimalMaxWords = 60
	MaxWords        = 100
)

// Canned usage scores for blocked prompts.
const (
	BlockedLengthUsage     = 95
	BlockedPolitenessUsage = 90
)

const (
	msgTooShortError = "Prompt is too short and will be blocked. Please be more specific."
	msgTooLongError  = "Prompt is too long and will consume excessive energy. Please be more concise."
	msgShortWarning  = "Your prompt is too short for optimal efficiency. Aim for 15-60 words."
	msgLongWarning   = "Your prompt is getting too long. Aim for 15-60 words for optimal energy usage."
	msgValid         = "Great prompt length! This is energy efficient."

	// ShortPromptResponse is the canned assistant reply for a blocked short prompt.
	ShortPromptResponse = "Are you that lazy? If you ask me precisely what you need, I will consume less energy. Stop writing very short prompts please."
	// LongPromptResponse is the canned assistant reply for a blocked long prompt.
	LongPromptResponse = "That prompt is far too long. Trim it down to what you actually need and I will spend a fraction of the energy answering it."
	// PolitenessResponse is the canned assistant reply for a prompt with greetings or thanks.
	PolitenessResponse = "Greeting me is not eco-responsible, you make me consume more energy than I really need. You forgot that I'm not human, think twice before writing!"
)

var politeness = regexp.MustCompile(`(?i)\b(hello|hi|hey|good\s+(morning|afternoon|evening)|evening|morning|goodbye|bye|thanks|thank\s+you|please)\b`)

// WordCount returns the number of whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Validate returns the advisory status for text.
func Validate(text string) domain.ValidationResult {
	if strings.TrimSpace(text) == "" {
		return domain.ValidationResult{Status: domain.ValidationIdle}
	}

	n := WordCount(text)
	switch {
	case n < MinWords:
		return domain.ValidationResult{Status: domain.ValidationError, Message: msgTooShortError}
	case n > MaxWords:
		return domain.ValidationResult{Status: domain.ValidationError, Message: msgTooLongError}
	case n < OptimalMinWords:
		return domain.ValidationResult{Status: domain.ValidationWarning, Message: msgShortWarning}
	case n > OptimalMaxWords:
		return domain.ValidationResult{Status: domain.ValidationWarning, Message: msgLongWarning}
	default:
		return domain.ValidationResult{Status: domain.ValidationValid, Message: msgValid}
	}
}

// ContainsPoliteness reports whether text contains a greeting, farewell or
// thanks (case-insensitive, whole words).
func ContainsPoliteness(text string) bool {
	return politeness.MatchString(text)
}

// ─── Submit Gate ────────────────────────────────────────────────────────────

// BlockReason says why the gate rejected a prompt.
type BlockReason string

const (
	BlockTooShort   BlockReason = "too_short"
	BlockTooLong    BlockReason = "too_long"
	BlockPoliteness BlockReason = "politeness"
)

// Block is the substitute result for a rejected prompt.
type Block struct {
	Reason     BlockReason
	Validation domain.ValidationResult
	Response   string
	Metrics    domain.EnergyMetrics
}

// Gate applies the hard submission checks. Length is checked before
// politeness. Blocked prompts are always low efficiency.
func Gate(text string) (Block, bool) {
	v := Validate(text)
	if v.Status == domain.ValidationError {
		b := Block{
			Reason:     BlockTooShort,
			Validation: v,
			Response:   ShortPromptResponse,
			Metrics:    blockedMetrics(BlockedLengthUsage),
		}
		if WordCount(text) > MaxWords {
			b.Reason = BlockTooLong
			b.Response = LongPromptResponse
		}
		return b, true
	}
	if ContainsPoliteness(text) {
		return Block{
			Reason:     BlockPoliteness,
			Validation: v,
			Response:   PolitenessResponse,
			Metrics:    blockedMetrics(BlockedPolitenessUsage),
		}, true
	}
	return Block{}, false
}

func blockedMetrics(usage int) domain.EnergyMetrics {
	return domain.EnergyMetrics{
		Usage:       usage,
		Efficiency:  domain.EfficiencyLow,
		Suggestions: []string{"Be more concise and specific in your prompts"},
	}
}
