// Package energy estimates how much energy a prompt will cost to answer.
//
// Two strategies exist. When a classifier is configured the estimator asks
// it for a 0–100 eco score and maps that to usage. Otherwise, or whenever
// the classifier fails for any reason, a local heuristic derives usage from
// prompt length and complexity. Callers always get a normal Evaluation back.
package energy

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

// Fallback reasons reported in Evaluation.FallbackReason and metrics.
const (
	ReasonTimeout     = "timeout"
	ReasonMalformed   = "malformed"
	ReasonUnavailable = "unavailable"
)

// Suggestions is the fixed list of hints offered for low-efficiency prompts.
var Suggestions = []string{
	"Be more specific in your question",
	"Break complex questions into smaller ones",
	"Avoid asking multiple questions at once",
	"Use keywords instead of full sentences when possible",
	"Specify exactly what information you need",
	"Remove unnecessary context and details",
}

var interrogative = regexp.MustCompile(`(?i)\b(why|how|explain|describe|analyze|compare|evaluate)\b`)

// Config controls estimator behavior.
type Config struct {
	ClassifierTimeout time.Duration // Per-call classifier deadline (0 = caller's ctx only)
	Seed              uint64        // Jitter seed (0 = seeded from the clock)
}

// DefaultConfig returns estimator defaults.
func DefaultConfig() Config {
	return Config{ClassifierTimeout: 60 * time.Second}
}

// Estimator produces an Evaluation for each prompt.
type Estimator struct {
	cfg        Config
	classifier domain.Classifier
	log        *logger.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New creates an estimator. classifier may be nil for heuristic-only mode.
func New(cfg Config, classifier domain.Classifier, log *logger.Logger) *Estimator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Estimator{
		cfg:        cfg,
		classifier: classifier,
		log:        logger.OrNop(log).Component("energy"),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// HasClassifier reports whether a classifier is configured.
func (e *Estimator) HasClassifier() bool { return e.classifier != nil }

// Estimate evaluates prompt. It never fails: classifier errors fall back to
// the heuristic.
func (e *Estimator) Estimate(ctx context.Context, prompt string) domain.Evaluation {
	var ev domain.Evaluation
	if e.classifier != nil {
		c, err := e.classify(ctx, prompt)
		if err == nil {
			ev = e.fromClassification(c)
		} else {
			reason := fallbackReason(ctx, err)
			e.log.Warn("classifier failed, using heuristic", "reason", reason, "error", err)
			observability.ClassifierFallbacks.WithLabelValues(reason).Inc()
			ev = e.Heuristic(prompt)
			ev.FallbackReason = reason
		}
	} else {
		ev = e.Heuristic(prompt)
	}

	observability.PromptsEvaluated.WithLabelValues(string(ev.Metrics.Efficiency), string(ev.Source)).Inc()
	observability.PromptEnergyUsage.Observe(float64(ev.Metrics.Usage))
	return ev
}

func (e *Estimator) classify(ctx context.Context, prompt string) (domain.Classification, error) {
	if e.cfg.ClassifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ClassifierTimeout)
		defer cancel()
	}
	start := time.Now()
	c, err := e.classifier.Evaluate(ctx, prompt)
	observability.ClassifierLatency.Observe(time.Since(start).Seconds())
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return c, err
}

func fallbackReason(parent context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, domain.ErrMalformedClassification):
		return ReasonMalformed
	case parent.Err() != nil:
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}

func (e *Estimator) fromClassification(c domain.Classification) domain.Evaluation {
	c.Score = domain.ClampPercent(c.Score)
	m := domain.EnergyMetrics{
		Usage:      domain.ClampPercent(100 - c.Score),
		Efficiency: domain.EfficiencyForScore(c.Score),
	}
	if m.Efficiency == domain.EfficiencyLow {
		m.Suggestions = e.suggest()
	}
	return domain.Evaluation{Metrics: m, Classification: c, Source: domain.SourceClassifier}
}

// ─── Heuristic ──────────────────────────────────────────────────────────────

// Complexity scores prompt in [0, 1] from word count, interrogative markers
// and the number of question marks.
func Complexity(prompt string) float64 {
	var c float64
	switch n := len(strings.Fields(prompt)); {
	case n > 50:
		c += 0.3
	case n > 20:
		c += 0.15
	}
	if interrogative.MatchString(prompt) {
		c += 0.2
	}
	if strings.Count(prompt, "?") > 1 {
		c += 0.2
	}
	return math.Min(c, 1)
}

// BaseUsage is the un-jittered usage for prompt.
func BaseUsage(prompt string) float64 {
	return 10 + float64(utf8.RuneCountInString(prompt))/10*(1+2*Complexity(prompt))
}

// Heuristic evaluates prompt without the classifier.
func (e *Estimator) Heuristic(prompt string) domain.Evaluation {
	jitter := 0.8 + e.float()*0.4
	usage := domain.ClampPercent(int(math.Round(BaseUsage(prompt) * jitter)))

	m := domain.EnergyMetrics{Usage: usage, Efficiency: domain.EfficiencyForUsage(usage)}
	if m.Efficiency == domain.EfficiencyLow {
		m.Suggestions = e.suggest()
	}
	return domain.Evaluation{
		Metrics: m,
		Classification: domain.Classification{
			IsEcoResponsible: m.Efficiency != domain.EfficiencyLow,
			Score:            100 - usage,
			Explanation:      explain(m.Efficiency),
			Response:         e.respond(prompt),
		},
		Source: domain.SourceHeuristic,
	}
}

func explain(eff domain.Efficiency) string {
	switch eff {
	case domain.EfficiencyHigh:
		return "Short, focused prompt. Little energy needed to answer it."
	case domain.EfficiencyMedium:
		return "Reasonable prompt, though it could be tighter."
	default:
		return "Long or complex prompt. Answering it costs a lot of energy."
	}
}

// suggest returns one or two distinct hints.
func (e *Estimator) suggest() []string {
	e.mu.Lock()
	perm := e.rng.Perm(len(Suggestions))
	n := 1 + e.rng.IntN(2)
	e.mu.Unlock()

	out := make([]string, n)
	for i := range out {
		out[i] = Suggestions[perm[i]]
	}
	return out
}

func (e *Estimator) float() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *Estimator) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}
