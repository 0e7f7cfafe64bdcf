// Package ollama scores prompts with a locally running Ollama model.
//
// The client sends one non-streaming /api/generate request per prompt,
// asking the model for a JSON verdict. Models such as deepseek-r1 wrap their
// answer in free text and a <think> block, so the verdict is extracted from
// between the first '{' and the last '}'.
//
// Single request, no retries. Every failure is returned as an error wrapping
// domain.ErrClassifierUnavailable or domain.ErrMalformedClassification.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
)

// Defaults match a stock local Ollama install.
const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "deepseek-r1"
	DefaultTemperature = 0.7
	DefaultNumPredict  = 2048
	DefaultTimeout     = 60 * time.Second

	maxResponseBytes = 1 << 20
)

// Config configures the client. Zero fields take the defaults above.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	NumPredict  int
	Timeout     time.Duration
}

// Client implements domain.Classifier against Ollama.
type Client struct {
	cfg    Config
	http   *http.Client
	log    *logger.Logger
	system string
}

var _ domain.Classifier = (*Client)(nil)

// New creates a client.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = DefaultNumPredict
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		log:    logger.OrNop(log).Component("ollama"),
		system: SystemPrompt,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Model      string `json:"model"`
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
}

// Evaluate asks the model to score prompt.
func (c *Client) Evaluate(ctx context.Context, prompt string) (domain.Classification, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: c.system + "\n\nUser prompt: " + prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.NumPredict,
		},
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: marshal request: %w", domain.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: build request: %w", domain.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: read response: %w", domain.ErrClassifierUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Classification{}, fmt.Errorf("%w: status %d", domain.ErrClassifierUnavailable, resp.StatusCode)
	}

	var gen generateResponse
	if err := json.Unmarshal(raw, &gen); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: decode envelope: %v", domain.ErrMalformedClassification, err)
	}
	if gen.DoneReason == "length" {
		c.log.Debug("model output truncated", "model", gen.Model)
	}
	return ParseVerdict(gen.Response)
}
