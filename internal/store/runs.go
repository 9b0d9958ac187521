package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecordRun inserts a run and all its dependent rows in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, detail *RunDetail) (int64, error) {
	if detail == nil {
		return 0, fmt.Errorf("nil run detail")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r := detail.Run
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_uuid, started_at, model, dry_run, file_count,
			aggregate_tokens, soft_exceeded, hard_exceeded, capacity_remaining,
			finding_count, alert_count, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunUUID, r.StartedAt.Format(time.RFC3339), r.Model, boolToInt(r.DryRun),
		r.FileCount, r.AggregateTokens, boolToInt(r.SoftExceeded), boolToInt(r.HardExceeded),
		r.CapacityRemaining, len(detail.Findings), len(detail.Alerts), r.Summary)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, f := range detail.Files {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_files (run_id, position, file_name, token_count, removed_count, alert_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, f.Position, f.FileName, f.TokenCount, f.RemovedCount, f.AlertCount); err != nil {
			return 0, fmt.Errorf("inserting run file %s: %w", f.FileName, err)
		}
	}

	for _, f := range detail.Findings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO findings (run_id, severity, file_name, section, issue,
				action_type, existing_text, replacement_text, code_reference)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.Severity, f.FileName, f.Section, f.Issue,
			f.ActionType, f.ExistingText, f.ReplacementText, f.CodeReference); err != nil {
			return 0, fmt.Errorf("inserting finding: %w", err)
		}
	}

	for _, a := range detail.Alerts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO alerts (run_id, file_name, rule_id, category, start_off, end_off, matched_text, context)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, a.FileName, a.RuleID, a.Category, a.Start, a.End, a.MatchedText, a.Context); err != nil {
			return 0, fmt.Errorf("inserting alert: %w", err)
		}
	}

	for _, sp := range detail.Removed {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO removed_spans (run_id, file_name, rule_id, category, start_off, end_off, matched_text)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, sp.FileName, sp.RuleID, sp.Category, sp.Start, sp.End, sp.MatchedText); err != nil {
			return 0, fmt.Errorf("inserting removed span: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_uuid, started_at, model, dry_run, file_count,
			aggregate_tokens, soft_exceeded, hard_exceeded, capacity_remaining,
			finding_count, alert_count, summary
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a run with its findings, alerts, and removed spans.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_uuid, started_at, model, dry_run, file_count,
			aggregate_tokens, soft_exceeded, hard_exceeded, capacity_remaining,
			finding_count, alert_count, summary
		FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: *r}

	fileRows, err := s.db.QueryContext(ctx, `
		SELECT position, file_name, token_count, removed_count, alert_count
		FROM run_files WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading run files: %w", err)
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var f RunFile
		if err := fileRows.Scan(&f.Position, &f.FileName, &f.TokenCount, &f.RemovedCount, &f.AlertCount); err != nil {
			return nil, err
		}
		detail.Files = append(detail.Files, f)
	}
	if err := fileRows.Err(); err != nil {
		return nil, err
	}

	findingRows, err := s.db.QueryContext(ctx, `
		SELECT severity, file_name, section, issue, action_type,
			existing_text, replacement_text, code_reference
		FROM findings WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading findings: %w", err)
	}
	defer findingRows.Close()
	for findingRows.Next() {
		var f FindingRow
		if err := findingRows.Scan(&f.Severity, &f.FileName, &f.Section, &f.Issue,
			&f.ActionType, &f.ExistingText, &f.ReplacementText, &f.CodeReference); err != nil {
			return nil, err
		}
		detail.Findings = append(detail.Findings, f)
	}
	if err := findingRows.Err(); err != nil {
		return nil, err
	}

	alertRows, err := s.db.QueryContext(ctx, `
		SELECT file_name, rule_id, category, start_off, end_off, matched_text, context
		FROM alerts WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading alerts: %w", err)
	}
	defer alertRows.Close()
	for alertRows.Next() {
		var a SpanRow
		if err := alertRows.Scan(&a.FileName, &a.RuleID, &a.Category, &a.Start, &a.End, &a.MatchedText, &a.Context); err != nil {
			return nil, err
		}
		detail.Alerts = append(detail.Alerts, a)
	}
	if err := alertRows.Err(); err != nil {
		return nil, err
	}

	removedRows, err := s.db.QueryContext(ctx, `
		SELECT file_name, rule_id, category, start_off, end_off, matched_text
		FROM removed_spans WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading removed spans: %w", err)
	}
	defer removedRows.Close()
	for removedRows.Next() {
		var sp SpanRow
		if err := removedRows.Scan(&sp.FileName, &sp.RuleID, &sp.Category, &sp.Start, &sp.End, &sp.MatchedText); err != nil {
			return nil, err
		}
		detail.Removed = append(detail.Removed, sp)
	}
	if err := removedRows.Err(); err != nil {
		return nil, err
	}

	return detail, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var started string
	var dryRun, soft, hard int
	if err := row.Scan(&r.ID, &r.RunUUID, &started, &r.Model, &dryRun, &r.FileCount,
		&r.AggregateTokens, &soft, &hard, &r.CapacityRemaining,
		&r.FindingCount, &r.AlertCount, &r.Summary); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		r.StartedAt = t
	}
	r.DryRun = dryRun != 0
	r.SoftExceeded = soft != 0
	r.HardExceeded = hard != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
