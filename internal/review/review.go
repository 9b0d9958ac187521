package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specwarden/specwarden/internal/batch"
)

// Opts configures a review call.
type Opts struct {
	MaxRetries int           // attempts on transient failures (default 3)
	MaxTokens  int           // response budget (default 32768)
	Timeout    time.Duration // per-attempt timeout (default 10m)
}

// DefaultOpts returns the stock review options.
func DefaultOpts() Opts {
	return Opts{MaxRetries: 3, MaxTokens: 32768, Timeout: 10 * time.Minute}
}

// Run submits an assembled batch to the provider and parses findings.
//
// Rate limits and transport errors retry with exponential backoff;
// anything else fails immediately. The enclosing context owns overall
// cancellation — the core pipeline has no cancellation concept of its
// own, so the network timeout lives here.
func Run(ctx context.Context, provider Provider, decision batch.Decision, opts Opts) (*Result, error) {
	if provider == nil {
		return nil, fmt.Errorf("review provider is nil")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 32768
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}

	prompt := UserMessage(decision)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		completion, err := provider.Complete(attemptCtx, prompt, CompletionOpts{
			MaxTokens: opts.MaxTokens,
			System:    SystemPrompt(),
		})
		cancel()

		if err == nil {
			summary, findings, parseErr := ParseFindings(completion.Text)
			result := &Result{
				Findings:     findings,
				Summary:      summary,
				RawResponse:  completion.Text,
				Model:        provider.Name(),
				InputTokens:  completion.InputTokens,
				OutputTokens: completion.OutputTokens,
				Elapsed:      time.Since(start),
			}
			if parseErr != nil {
				return result, fmt.Errorf("parsing model response: %w", parseErr)
			}
			return result, nil
		}

		lastErr = err
		if attempt == opts.MaxRetries-1 {
			break
		}

		// 429s wait longer than plain transport errors.
		backoff := time.Duration(1<<attempt) * 5 * time.Second
		var rl *RateLimitError
		if errors.As(err, &rl) {
			backoff = time.Duration(1<<attempt) * 10 * time.Second
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("review failed after %d attempts: %w", opts.MaxRetries, lastErr)
}
