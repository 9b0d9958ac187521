// Package pipeline runs one document through the preprocessing stages
// and carries the per-file result from extraction to batch assembly.
package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/specwarden/specwarden/internal/patterns"
	"github.com/specwarden/specwarden/internal/preprocess"
	"github.com/specwarden/specwarden/internal/tokens"
)

// Input is one extracted document entering the pipeline: a file name
// and the plain paragraph text the extraction boundary produced.
type Input struct {
	FileName string
	RawText  string
}

// FileText is one document's representation through the pipeline.
// Each stage writes exactly one field group; once Process returns, the
// value is complete and treated as immutable.
type FileText struct {
	FileName       string            `json:"file_name"`
	RawText        string            `json:"-"`
	NormalizedText string            `json:"-"`
	CleanedText    string            `json:"-"`
	RemovedSpans   []preprocess.Span `json:"removed_spans"`
	Alerts         []preprocess.Span `json:"alerts"`
	TokenCount     int               `json:"token_count"`
}

// Process runs normalize → strip → scan → estimate for a single file.
// Pure: no I/O, no failure mode, bounded by input size.
func Process(name, raw string, cat patterns.Catalogue, est tokens.Estimator) FileText {
	ft := FileText{FileName: name, RawText: raw}
	ft.NormalizedText = preprocess.Normalize(raw)
	ft.CleanedText, ft.RemovedSpans = preprocess.Strip(ft.NormalizedText, cat)
	ft.Alerts = preprocess.Scan(ft.CleanedText, cat)
	ft.TokenCount = est.Estimate(ft.CleanedText)
	return ft
}

// ProcessAll preprocesses files concurrently. Files are independent —
// each transform owns its own copy of text — so only the result order
// matters, and results come back in input order regardless of which
// file finished first. Assembly afterwards is the ordered join point.
func ProcessAll(ctx context.Context, inputs []Input, cat patterns.Catalogue, est tokens.Estimator) ([]FileText, error) {
	results := make([]FileText, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Process(in.FileName, in.RawText, cat, est)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
