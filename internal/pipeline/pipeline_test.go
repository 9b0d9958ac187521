package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/specwarden/specwarden/internal/patterns"
	"github.com/specwarden/specwarden/internal/tokens"
)

func TestProcess_FullChain(t *testing.T) {
	raw := "[Note to specifier: delete if not applicable]\r\nProvide LEED credit EA-1 documentation.   \r\n"
	ft := Process("section-22.txt", raw, patterns.Default(), tokens.Heuristic{})

	if ft.FileName != "section-22.txt" {
		t.Fatalf("file name lost: %q", ft.FileName)
	}
	if ft.RawText != raw {
		t.Fatal("raw text must be kept verbatim")
	}
	if strings.Contains(ft.CleanedText, "Note to specifier") {
		t.Fatalf("boilerplate survived: %q", ft.CleanedText)
	}
	if len(ft.RemovedSpans) != 1 {
		t.Fatalf("expected 1 removed span, got %d", len(ft.RemovedSpans))
	}
	if len(ft.Alerts) == 0 {
		t.Fatal("expected LEED alerts")
	}
	if want := (tokens.Heuristic{}).Estimate(ft.CleanedText); ft.TokenCount != want {
		t.Fatalf("token count %d, want %d", ft.TokenCount, want)
	}
}

func TestProcess_RemovedSpansPointIntoNormalizedText(t *testing.T) {
	raw := "Page 2 of 9\r\nPipe shall be copper."
	ft := Process("f.txt", raw, patterns.Default(), tokens.Heuristic{})

	for _, sp := range ft.RemovedSpans {
		if ft.NormalizedText[sp.Start:sp.End] != sp.MatchedText {
			t.Fatalf("span offsets are not normalized-text offsets: %+v", sp)
		}
	}
}

func TestProcess_AlertsPointIntoCleanedText(t *testing.T) {
	raw := "Insulation thickness: [INSERT THICKNESS] inches"
	ft := Process("f.txt", raw, patterns.Default(), tokens.Heuristic{})

	if len(ft.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(ft.Alerts))
	}
	a := ft.Alerts[0]
	if ft.CleanedText[a.Start:a.End] != a.MatchedText {
		t.Fatalf("alert offsets are not cleaned-text offsets: %+v", a)
	}
}

func TestProcessAll_PreservesInputOrder(t *testing.T) {
	var inputs []Input
	for i := 0; i < 50; i++ {
		inputs = append(inputs, Input{
			FileName: fmt.Sprintf("file-%02d.txt", i),
			RawText:  fmt.Sprintf("Body of file %d.\n", i),
		})
	}

	results, err := ProcessAll(context.Background(), inputs, patterns.Default(), tokens.Heuristic{})
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	for i, ft := range results {
		if ft.FileName != inputs[i].FileName {
			t.Fatalf("position %d: got %s, want %s", i, ft.FileName, inputs[i].FileName)
		}
	}
}

func TestProcessAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []Input{{FileName: "a.txt", RawText: "x"}}
	if _, err := ProcessAll(ctx, inputs, patterns.Default(), tokens.Heuristic{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestProcessAll_Empty(t *testing.T) {
	results, err := ProcessAll(context.Background(), nil, patterns.Default(), tokens.Heuristic{})
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
