// Package mcpsrv exposes the review pipeline over the Model Context
// Protocol so coding agents can preflight specification text without
// shelling out to the CLI: scan a blob, estimate a batch, and read
// recent run history.
package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/specwarden/specwarden/internal/batch"
	"github.com/specwarden/specwarden/internal/patterns"
	"github.com/specwarden/specwarden/internal/pipeline"
	"github.com/specwarden/specwarden/internal/store"
	"github.com/specwarden/specwarden/internal/tokens"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Catalogue patterns.Catalogue
	Estimator tokens.Estimator
	Limits    batch.Limits
	Store     store.Store // optional; spec_runs is omitted when nil
	Version   string
}

// dbMu serializes tool calls that touch the run-history database; the
// mcp-go library dispatches handlers on separate goroutines and SQLite
// wants one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Specwarden",
		ver,
		server.WithToolCapabilities(false),
	)

	registerScanTool(s, cfg)
	registerEstimateTool(s, cfg)
	if cfg.Store != nil {
		registerRunsTool(s, cfg.Store)
	}

	return s
}

// ServeStdio blocks serving the given server on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerScanTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("spec_scan",
		mcp.WithDescription("Preprocess one specification text: normalize it, strip boilerplate (specifier notes, copyright blocks, separators), and scan for LEED references and unresolved placeholders. Returns cleaned text stats, removed spans, and alerts. The input is never mutated on disk."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw extracted specification text"),
		),
		mcp.WithString("file_name",
			mcp.Description("Source file name for attribution (default: input.txt)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		name := "input.txt"
		if n, err := req.RequireString("file_name"); err == nil && n != "" {
			name = n
		}

		ft := pipeline.Process(name, text, cfg.Catalogue, cfg.Estimator)

		out := map[string]any{
			"file_name":     ft.FileName,
			"cleaned_text":  ft.CleanedText,
			"token_count":   ft.TokenCount,
			"removed_spans": ft.RemovedSpans,
			"alerts":        ft.Alerts,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerEstimateTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("spec_estimate",
		mcp.WithDescription("Estimate the aggregate token count for a set of cleaned specification texts assembled into one batch, and report whether it fits the configured soft/hard capacity limits."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("texts_json",
			mcp.Required(),
			mcp.Description(`JSON array of {"file_name": ..., "text": ...} objects, in batch order`),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("texts_json")
		if err != nil {
			return mcp.NewToolResultError("texts_json is required"), nil
		}

		var entries []struct {
			FileName string `json:"file_name"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid texts_json: %v", err)), nil
		}

		files := make([]pipeline.FileText, 0, len(entries))
		for _, e := range entries {
			files = append(files, pipeline.FileText{
				FileName:    e.FileName,
				CleanedText: e.Text,
				TokenCount:  cfg.Estimator.Estimate(e.Text),
			})
		}

		decision, err := batch.Assemble(files, cfg.Limits, cfg.Estimator)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("assemble error: %v", err)), nil
		}

		perFile := make([]map[string]any, 0, len(files))
		for _, f := range files {
			perFile = append(perFile, map[string]any{"file_name": f.FileName, "tokens": f.TokenCount})
		}
		out := map[string]any{
			"aggregate_tokens":   decision.AggregateTokens,
			"soft_limit":         cfg.Limits.Soft,
			"hard_limit":         cfg.Limits.Hard,
			"soft_exceeded":      decision.SoftExceeded,
			"hard_exceeded":      decision.HardExceeded,
			"capacity_remaining": decision.CapacityRemaining,
			"files":              perFile,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("spec_runs",
		mcp.WithDescription("List recent review runs from the local history database: when they ran, what model reviewed them, token usage, and finding/alert counts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default: 10, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 10
		if v, err := req.RequireFloat("limit"); err == nil {
			limit = int(v)
			if limit > 50 {
				limit = 50
			}
		}

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing runs: %v", err)), nil
		}

		data, _ := json.MarshalIndent(runs, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
