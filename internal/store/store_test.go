package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	// A file in t.TempDir rather than :memory: so the WAL pragma path
	// is exercised too.
	s, err := Open(Config{DBPath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDetail(uuid string) *RunDetail {
	return &RunDetail{
		Run: Run{
			RunUUID:           uuid,
			StartedAt:         time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC),
			Model:             "anthropic/claude-opus-4-5-20251101",
			FileCount:         2,
			AggregateTokens:   42_000,
			CapacityRemaining: 158_000,
			Summary:           "Two corrections needed.",
		},
		Files: []RunFile{
			{Position: 0, FileName: "22 05 00.txt", TokenCount: 20_000, RemovedCount: 3, AlertCount: 1},
			{Position: 1, FileName: "23 05 00.txt", TokenCount: 22_000, RemovedCount: 1, AlertCount: 2},
		},
		Findings: []FindingRow{
			{Severity: "HIGH", FileName: "22 05 00.txt", Section: "2.1.A", Issue: "Wrong pipe class.", ActionType: "EDIT"},
		},
		Alerts: []SpanRow{
			{FileName: "23 05 00.txt", RuleID: "leed-ref", Category: "leed", Start: 10, End: 14, MatchedText: "LEED", Context: "per LEED credit"},
		},
		Removed: []SpanRow{
			{FileName: "22 05 00.txt", RuleID: "specifier-note-block", Category: "specifier_note", Start: 0, End: 30, MatchedText: "[Note to specifier: edit]"},
		},
	}
}

func TestRecordRun_AndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordRun(ctx, sampleDetail("uuid-1"))
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive run id, got %d", id)
	}

	detail, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	r := detail.Run
	if r.RunUUID != "uuid-1" || r.Model != "anthropic/claude-opus-4-5-20251101" {
		t.Fatalf("run row drifted: %+v", r)
	}
	if !r.StartedAt.Equal(time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("timestamp not round-tripped: %v", r.StartedAt)
	}
	if r.FindingCount != 1 || r.AlertCount != 1 {
		t.Fatalf("derived counts wrong: %+v", r)
	}
	if len(detail.Files) != 2 || detail.Files[0].FileName != "22 05 00.txt" {
		t.Fatalf("files not round-tripped: %+v", detail.Files)
	}
	if len(detail.Findings) != 1 || detail.Findings[0].Issue != "Wrong pipe class." {
		t.Fatalf("findings not round-tripped: %+v", detail.Findings)
	}
	if len(detail.Alerts) != 1 || detail.Alerts[0].MatchedText != "LEED" {
		t.Fatalf("alerts not round-tripped: %+v", detail.Alerts)
	}
	if len(detail.Removed) != 1 || detail.Removed[0].RuleID != "specifier-note-block" {
		t.Fatalf("removed spans not round-tripped: %+v", detail.Removed)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, uuid := range []string{"uuid-a", "uuid-b", "uuid-c"} {
		if _, err := s.RecordRun(ctx, sampleDetail(uuid)); err != nil {
			t.Fatalf("RecordRun %s: %v", uuid, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not honored: got %d runs", len(runs))
	}
	if runs[0].RunUUID != "uuid-c" || runs[1].RunUUID != "uuid-b" {
		t.Fatalf("not newest first: %s, %s", runs[0].RunUUID, runs[1].RunUUID)
	}
}

func TestRecordRun_DryRunFlagsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := sampleDetail("uuid-flags")
	d.Run.DryRun = true
	d.Run.SoftExceeded = true
	d.Run.HardExceeded = true
	d.Run.CapacityRemaining = -20_000

	id, err := s.RecordRun(ctx, d)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.Run.DryRun || !got.Run.SoftExceeded || !got.Run.HardExceeded {
		t.Fatalf("flags lost: %+v", got.Run)
	}
	if got.Run.CapacityRemaining != -20_000 {
		t.Fatalf("negative capacity lost: %d", got.Run.CapacityRemaining)
	}
}

func TestGetRun_Missing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRun(context.Background(), 9999); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestRecordRun_NilDetail(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.RecordRun(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil detail")
	}
}

func TestExpandPath(t *testing.T) {
	if got := ExpandPath("/abs/path.db"); got != "/abs/path.db" {
		t.Fatalf("absolute path must pass through: %q", got)
	}
	got := ExpandPath("~/.specwarden/specwarden.db")
	if got == "~/.specwarden/specwarden.db" {
		t.Fatal("tilde not expanded")
	}
	if filepath.Base(got) != "specwarden.db" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
