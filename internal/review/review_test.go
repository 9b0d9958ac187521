package review

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/specwarden/specwarden/internal/batch"
)

// fakeProvider scripts completions for Run tests.
type fakeProvider struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
	systems []string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (Completion, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, opts.System)
	if i < len(f.errs) && f.errs[i] != nil {
		return Completion{}, f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return Completion{Text: reply, InputTokens: 1000, OutputTokens: 200}, nil
}

func (f *fakeProvider) Name() string { return "fake/model" }

func testDecision() batch.Decision {
	return batch.Decision{
		Files:           []string{"a.txt"},
		CombinedText:    batch.Marker("a.txt") + "\nPipe shall be copper.",
		AggregateTokens: 10,
	}
}

func TestRun_Success(t *testing.T) {
	p := &fakeProvider{replies: []string{
		`All good. [{"severity": "GRIPES", "fileName": "a.txt", "issue": "typo in 1.2.A"}]`,
	}}

	result, err := Run(context.Background(), p, testDecision(), DefaultOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("expected 1 call, got %d", p.calls)
	}
	if result.Summary != "All good." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	if result.Model != "fake/model" || result.InputTokens != 1000 {
		t.Fatalf("usage not carried over: %+v", result)
	}
}

func TestRun_SendsSystemPromptAndMarkers(t *testing.T) {
	p := &fakeProvider{replies: []string{"ok []"}}

	if _, err := Run(context.Background(), p, testDecision(), DefaultOpts()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.systems[0] != SystemPrompt() {
		t.Fatal("system prompt must be attached to the request")
	}
	if !strings.Contains(p.prompts[0], batch.Marker("a.txt")) {
		t.Fatalf("user message lost the file marker:\n%s", p.prompts[0])
	}
}

func TestRun_UnparseableReplyReturnsPartialResult(t *testing.T) {
	p := &fakeProvider{replies: []string{"I refuse to produce JSON."}}

	result, err := Run(context.Background(), p, testDecision(), DefaultOpts())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if result == nil {
		t.Fatal("partial result must still come back for artifact writing")
	}
	if result.RawResponse != "I refuse to produce JSON." {
		t.Fatalf("raw response lost: %q", result.RawResponse)
	}
}

func TestRun_NilProvider(t *testing.T) {
	if _, err := Run(context.Background(), nil, testDecision(), DefaultOpts()); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

func TestRun_CancelledDuringBackoff(t *testing.T) {
	p := &fakeProvider{errs: []error{
		fmt.Errorf("transient transport failure"),
		fmt.Errorf("should never be reached"),
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, p, testDecision(), DefaultOpts())
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly 1 attempt before cancellation, got %d", p.calls)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation must interrupt the backoff wait")
	}
}
