// Package review sends an assembled specification batch to a remote
// model for analysis and parses the structured findings that come back.
//
// The provider adapter follows the same shape for every backend: plain
// net/http, no SDK. The preprocessing core knows nothing about this
// package — it hands over a combined text blob and an aggregate token
// count, nothing else.
package review

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider is the interface to a remote analysis model.
type Provider interface {
	// Complete sends a prompt and returns the completion with usage.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (Completion, error)
	// Name returns a human-readable provider name, e.g. "anthropic/claude-opus-4-5".
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // max tokens to generate (0 = provider default)
	Temperature float64 // 0.0-1.0 (0 = deterministic)
	System      string  // system prompt (optional)
}

// Completion is the model's reply plus reported token usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Config holds provider configuration.
type Config struct {
	Provider string // "anthropic", "openrouter"
	Model    string // e.g. "claude-opus-4-5-20251101"
	APIKey   string // empty = read from env
	BaseURL  string // optional URL override
}

// NewProvider creates a review provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY env var")
		}
		model := cfg.Model
		if model == "" {
			model = DefaultAnthropicModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com/v1"
		}
		return &anthropicProvider{apiKey: key, model: model, baseURL: baseURL}, nil

	case "openrouter":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENROUTER_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("openrouter provider requires OPENROUTER_API_KEY env var")
		}
		model := cfg.Model
		if model == "" {
			model = "anthropic/claude-sonnet-4"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		return &openrouterProvider{apiKey: key, model: model, baseURL: baseURL}, nil

	default:
		return nil, fmt.Errorf("unknown review provider: %q (supported: anthropic, openrouter)", cfg.Provider)
	}
}

// ParseProviderFlag parses a --llm flag value into a Config.
// Format: "provider/model", e.g. "anthropic/claude-opus-4-5-20251101".
func ParseProviderFlag(flag string) (Config, error) {
	if flag == "" {
		return Config{Provider: "anthropic", Model: DefaultAnthropicModel}, nil
	}

	parts := strings.SplitN(flag, "/", 2)
	if len(parts) < 2 {
		return Config{}, fmt.Errorf("invalid --llm format %q: expected provider/model", flag)
	}

	provider := strings.ToLower(parts[0])
	switch provider {
	case "anthropic", "openrouter":
		return Config{Provider: provider, Model: parts[1]}, nil
	default:
		return Config{}, fmt.Errorf("unknown provider %q in --llm flag (supported: anthropic, openrouter)", provider)
	}
}
