// Package gemini calls Gemini with Google Search grounding enabled and hands
// the answer to the grounding package.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/DeafMist/trend-radar/internal/grounding"
)

const (
	defaultModel   = "gemini-2.0-flash-exp"
	defaultTimeout = 5 * time.Minute
)

// Config captures the settings required to talk to Gemini. BaseURL is empty
// for the public endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client issues grounded generation requests.
type Client struct {
	model   string
	timeout time.Duration
	genai   *genai.Client
}

// Option customizes the client.
type Option func(*genai.ClientConfig)

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(cc *genai.ClientConfig) {
		if client != nil {
			cc.HTTPClient = client
		}
	}
}

// NewClient validates cfg and constructs a client on the Gemini API backend.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("gemini client: api key required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Timeout: &timeout,
		},
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{model: model, timeout: timeout, genai: client}, nil
}

// Generate sends prompt with the Google Search tool enabled and returns the
// answer including any grounding metadata.
func (c *Client) Generate(ctx context.Context, prompt string) (*grounding.Response, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("gemini generate: prompt required")
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate (timeout=%s): %w", c.timeout, err)
	}

	out := convert(resp)
	if len(out.Candidates) == 0 {
		return nil, errors.New("gemini generate: no candidates in response")
	}
	return out, nil
}
