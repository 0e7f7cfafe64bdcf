package ollama

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// DefaultScore is used when the model omits a score.
const DefaultScore = 50

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

type verdict struct {
	IsEcoResponsible *bool    `json:"isEcoResponsible"`
	Score            *float64 `json:"score"`
	Explanation      string   `json:"explanation"`
	Response         string   `json:"response"`
}

// StripThinking removes <think>…</think> reasoning blocks from model output.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}

// ParseVerdict extracts the JSON verdict from raw model output.
// isEcoResponsible is required. A missing score becomes DefaultScore and an
// empty response falls back to the model's visible text.
func ParseVerdict(text string) (domain.Classification, error) {
	visible := StripThinking(text)

	start := strings.Index(visible, "{")
	end := strings.LastIndex(visible, "}")
	if start < 0 || end < start {
		return domain.Classification{}, fmt.Errorf("%w: no JSON object in output", domain.ErrMalformedClassification)
	}

	var v verdict
	if err := json.Unmarshal([]byte(visible[start:end+1]), &v); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", domain.ErrMalformedClassification, err)
	}
	if v.IsEcoResponsible == nil {
		return domain.Classification{}, fmt.Errorf("%w: missing isEcoResponsible", domain.ErrMalformedClassification)
	}

	score := DefaultScore
	if v.Score != nil {
		score = domain.ClampPercent(int(math.Round(*v.Score)))
	}
	response := v.Response
	if response == "" {
		response = visible
	}
	return domain.Classification{
		IsEcoResponsible: *v.IsEcoResponsible,
		Score:            score,
		Explanation:      v.Explanation,
		Response:         response,
	}, nil
}
