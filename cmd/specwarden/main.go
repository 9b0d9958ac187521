package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/specwarden/specwarden/internal/batch"
	"github.com/specwarden/specwarden/internal/config"
	"github.com/specwarden/specwarden/internal/ingest"
	"github.com/specwarden/specwarden/internal/mcpsrv"
	"github.com/specwarden/specwarden/internal/patterns"
	"github.com/specwarden/specwarden/internal/pipeline"
	"github.com/specwarden/specwarden/internal/report"
	"github.com/specwarden/specwarden/internal/review"
	"github.com/specwarden/specwarden/internal/store"
	"github.com/specwarden/specwarden/internal/tokens"
)

const version = "0.1.0-dev"

func main() {
	// Local .env beats nothing, never beats the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "review":
		err = runReview(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "estimate":
		err = runEstimate(os.Args[2:])
	case "patterns":
		err = runPatterns(os.Args[2:])
	case "runs":
		err = runRuns(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("specwarden %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags are the flags shared by most subcommands, parsed by hand so
// positional arguments and flags can interleave.
type cliFlags struct {
	config    string
	llm       string
	db        string
	patterns  string
	out       string
	softLimit string
	hardLimit string
	dryRun    bool
	paths     []string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		takeValue := func(name string) (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			return args[i], nil
		}

		var err error
		switch {
		case arg == "--dry-run" || arg == "-n":
			f.dryRun = true
		case arg == "--config":
			f.config, err = takeValue(arg)
		case arg == "--llm":
			f.llm, err = takeValue(arg)
		case arg == "--db":
			f.db, err = takeValue(arg)
		case arg == "--patterns":
			f.patterns, err = takeValue(arg)
		case arg == "--out" || arg == "-o":
			f.out, err = takeValue(arg)
		case arg == "--soft-limit":
			f.softLimit, err = takeValue(arg)
		case arg == "--hard-limit":
			f.hardLimit, err = takeValue(arg)
		case strings.HasPrefix(arg, "-"):
			return f, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.paths = append(f.paths, arg)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

// resolve turns parsed flags into the merged runtime configuration.
func resolve(f cliFlags) (config.ResolvedConfig, error) {
	return config.Resolve(config.ResolveOptions{
		ConfigPath:   f.config,
		CLILLM:       f.llm,
		CLIDBPath:    f.db,
		CLIPatterns:  f.patterns,
		CLIOutputDir: f.out,
		CLISoftLimit: f.softLimit,
		CLIHardLimit: f.hardLimit,
	})
}

func buildEstimator(rc config.ResolvedConfig) (tokens.Estimator, error) {
	if rc.TokenizerJSON.Value == "" {
		return tokens.Heuristic{}, nil
	}
	return tokens.NewVocab(rc.TokenizerJSON.Value)
}

func buildLimits(rc config.ResolvedConfig) (batch.Limits, error) {
	def := batch.DefaultLimits()
	soft, err := rc.Limit(rc.SoftLimit, def.Soft)
	if err != nil {
		return batch.Limits{}, err
	}
	hard, err := rc.Limit(rc.HardLimit, def.Hard)
	if err != nil {
		return batch.Limits{}, err
	}
	if soft > hard {
		return batch.Limits{}, fmt.Errorf("soft limit %d exceeds hard limit %d", soft, hard)
	}
	return batch.Limits{Soft: soft, Hard: hard}, nil
}

// readInputs accepts either one directory or an explicit file list.
func readInputs(paths []string) ([]ingest.SourceFile, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input path specified")
	}
	if len(paths) == 1 {
		info, err := os.Stat(paths[0])
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", paths[0], err)
		}
		if info.IsDir() {
			return ingest.ReadDir(paths[0])
		}
	}
	return ingest.ReadFiles(paths)
}

func processAll(ctx context.Context, sources []ingest.SourceFile, cat patterns.Catalogue, est tokens.Estimator) ([]pipeline.FileText, error) {
	inputs := make([]pipeline.Input, 0, len(sources))
	for _, s := range sources {
		inputs = append(inputs, pipeline.Input{FileName: s.FileName, RawText: s.RawText})
	}
	return pipeline.ProcessAll(ctx, inputs, cat, est)
}

func runReview(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	cat, err := patterns.Load(rc.PatternsPath.Value)
	if err != nil {
		return err
	}
	est, err := buildEstimator(rc)
	if err != nil {
		return err
	}
	limits, err := buildLimits(rc)
	if err != nil {
		return err
	}

	sources, err := readInputs(f.paths)
	if err != nil {
		return fmt.Errorf("usage: specwarden review <dir-or-files> [--dry-run] [--llm provider/model]: %w", err)
	}

	ctx := context.Background()
	files, err := processAll(ctx, sources, cat, est)
	if err != nil {
		return err
	}

	decision, err := batch.Assemble(files, limits, est)
	if err != nil {
		return err
	}

	fmt.Printf("Prepared %d file(s): %d tokens (soft %d, hard %d)\n",
		len(files), decision.AggregateTokens, limits.Soft, limits.Hard)
	for _, ft := range files {
		fmt.Printf("  %s: %d tokens, %d removals, %d alerts\n",
			ft.FileName, ft.TokenCount, len(ft.RemovedSpans), len(ft.Alerts))
	}

	if decision.HardExceeded {
		return fmt.Errorf("batch exceeds hard limit by %d tokens; split the selection", -decision.CapacityRemaining)
	}
	if decision.SoftExceeded {
		fmt.Println("Warning: batch exceeds the soft limit; response quality may degrade")
	}

	var result *review.Result
	modelName := ""
	if f.dryRun {
		fmt.Println("Dry run mode — no analysis call will be made")
	} else {
		provCfg, err := review.ParseProviderFlag(rc.LLM.Value)
		if err != nil {
			return err
		}
		provCfg.APIKey = rc.APIKey.Value
		provider, err := review.NewProvider(provCfg)
		if err != nil {
			return err
		}
		modelName = provider.Name()

		fmt.Printf("Reviewing with %s...\n", modelName)
		result, err = review.Run(ctx, provider, decision, review.DefaultOpts())
		if err != nil {
			if result == nil {
				return err
			}
			// Keep a partial result (e.g. unparseable reply) so the raw
			// response still lands in the artifacts.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	dir, runID, err := report.NewRunDir(rc.OutputDir.Value)
	if err != nil {
		return err
	}
	artifacts, err := report.Write(dir, report.Input{
		Files:    files,
		Decision: decision,
		Result:   result,
		Limits:   limits,
		Model:    modelName,
		DryRun:   f.dryRun,
	})
	if err != nil {
		return err
	}

	if err := recordRun(ctx, rc, runID, modelName, f.dryRun, files, decision, result); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording run history: %v\n", err)
	}

	if result != nil {
		fmt.Printf("Findings: %d (%d critical, %d high, %d medium, %d gripes)\n",
			len(result.Findings),
			result.CountBySeverity(review.SeverityCritical),
			result.CountBySeverity(review.SeverityHigh),
			result.CountBySeverity(review.SeverityMedium),
			result.CountBySeverity(review.SeverityGripes))
	}
	fmt.Printf("Artifacts written to %s\n", artifacts.RunDir)
	return nil
}

func recordRun(ctx context.Context, rc config.ResolvedConfig, runID, model string, dryRun bool,
	files []pipeline.FileText, decision batch.Decision, result *review.Result) error {

	st, err := store.Open(store.Config{DBPath: rc.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	detail := &store.RunDetail{
		Run: store.Run{
			RunUUID:           runID,
			Model:             model,
			DryRun:            dryRun,
			FileCount:         len(files),
			AggregateTokens:   decision.AggregateTokens,
			SoftExceeded:      decision.SoftExceeded,
			HardExceeded:      decision.HardExceeded,
			CapacityRemaining: decision.CapacityRemaining,
		},
	}
	if result != nil {
		detail.Run.Summary = result.Summary
		for _, fd := range result.Findings {
			detail.Findings = append(detail.Findings, store.FindingRow{
				Severity: fd.Severity, FileName: fd.FileName, Section: fd.Section,
				Issue: fd.Issue, ActionType: fd.ActionType,
				ExistingText: fd.ExistingText, ReplacementText: fd.ReplacementText,
				CodeReference: fd.CodeReference,
			})
		}
	}
	for i, ft := range files {
		detail.Files = append(detail.Files, store.RunFile{
			Position: i, FileName: ft.FileName, TokenCount: ft.TokenCount,
			RemovedCount: len(ft.RemovedSpans), AlertCount: len(ft.Alerts),
		})
		for _, a := range ft.Alerts {
			detail.Alerts = append(detail.Alerts, store.SpanRow{
				FileName: ft.FileName, RuleID: a.RuleID, Category: string(a.Category),
				Start: a.Start, End: a.End, MatchedText: a.MatchedText, Context: a.Context,
			})
		}
		for _, sp := range ft.RemovedSpans {
			detail.Removed = append(detail.Removed, store.SpanRow{
				FileName: ft.FileName, RuleID: sp.RuleID, Category: string(sp.Category),
				Start: sp.Start, End: sp.End, MatchedText: sp.MatchedText,
			})
		}
	}

	_, err = st.RecordRun(ctx, detail)
	return err
}

func runScan(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	cat, err := patterns.Load(rc.PatternsPath.Value)
	if err != nil {
		return err
	}
	est, err := buildEstimator(rc)
	if err != nil {
		return err
	}

	sources, err := readInputs(f.paths)
	if err != nil {
		return fmt.Errorf("usage: specwarden scan <dir-or-files>: %w", err)
	}

	files, err := processAll(context.Background(), sources, cat, est)
	if err != nil {
		return err
	}

	for _, ft := range files {
		fmt.Printf("%s (%d tokens)\n", ft.FileName, ft.TokenCount)
		for _, sp := range ft.RemovedSpans {
			fmt.Printf("  removed [%s] %s @ %d-%d\n", sp.Category, sp.RuleID, sp.Start, sp.End)
		}
		for _, a := range ft.Alerts {
			fmt.Printf("  alert   [%s] %s @ %d: %s\n", a.Category, a.RuleID, a.Start, a.Context)
		}
		if len(ft.RemovedSpans) == 0 && len(ft.Alerts) == 0 {
			fmt.Println("  clean")
		}
	}
	return nil
}

func runEstimate(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	cat, err := patterns.Load(rc.PatternsPath.Value)
	if err != nil {
		return err
	}
	est, err := buildEstimator(rc)
	if err != nil {
		return err
	}
	limits, err := buildLimits(rc)
	if err != nil {
		return err
	}

	sources, err := readInputs(f.paths)
	if err != nil {
		return fmt.Errorf("usage: specwarden estimate <dir-or-files>: %w", err)
	}

	files, err := processAll(context.Background(), sources, cat, est)
	if err != nil {
		return err
	}
	decision, err := batch.Assemble(files, limits, est)
	if err != nil {
		return err
	}

	for _, ft := range files {
		fmt.Printf("%8d  %s\n", ft.TokenCount, ft.FileName)
	}
	fmt.Printf("%8d  total (%s)\n", decision.AggregateTokens, est.Name())
	switch {
	case decision.HardExceeded:
		fmt.Printf("OVER hard limit %d by %d tokens\n", limits.Hard, -decision.CapacityRemaining)
	case decision.SoftExceeded:
		fmt.Printf("Over soft limit %d; %d tokens below the hard limit\n", limits.Soft, decision.CapacityRemaining)
	default:
		fmt.Printf("Within limits; %d tokens of capacity remaining\n", decision.CapacityRemaining)
	}
	return nil
}

func runPatterns(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: specwarden patterns <list|validate> [--patterns file.yaml]")
	}

	sub := args[0]
	f, err := parseFlags(args[1:])
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		cat, err := patterns.Load(rc.PatternsPath.Value)
		if err != nil {
			return err
		}
		fmt.Println("Removal rules:")
		for _, r := range cat.RemoveRules() {
			fmt.Printf("  %-28s %-16s priority %d\n", r.ID, r.Category, r.Priority)
		}
		fmt.Println("Alert rules:")
		for _, r := range cat.AlertRules() {
			fmt.Printf("  %-28s %-16s priority %d\n", r.ID, r.Category, r.Priority)
		}
	case "validate":
		if rc.PatternsPath.Value == "" {
			return fmt.Errorf("usage: specwarden patterns validate --patterns file.yaml")
		}
		cat, err := patterns.LoadFile(rc.PatternsPath.Value)
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d removal rules, %d alert rules\n", len(cat.RemoveRules()), len(cat.AlertRules()))
	default:
		return fmt.Errorf("unknown patterns subcommand: %s (expected list or validate)", sub)
	}
	return nil
}

func runRuns(args []string) error {
	var showID int64
	limit := 20

	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--limit":
			i++
			if i >= len(args) {
				return fmt.Errorf("--limit requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid --limit value: %s", args[i])
			}
			limit = n
		case args[i] == "--show":
			i++
			if i >= len(args) {
				return fmt.Errorf("--show requires a run id")
			}
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id: %s", args[i])
			}
			showID = n
		default:
			rest = append(rest, args[i])
		}
	}

	f, err := parseFlags(rest)
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{DBPath: rc.DBPath.Value})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if showID > 0 {
		detail, err := st.GetRun(ctx, showID)
		if err != nil {
			return err
		}
		printRunDetail(detail)
		return nil
	}

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}
	fmt.Printf("%-5s %-20s %-10s %-8s %-8s %-8s %s\n",
		"ID", "Started", "Files", "Tokens", "Findings", "Alerts", "Model")
	for _, r := range runs {
		model := r.Model
		if r.DryRun {
			model = "(dry run)"
		}
		fmt.Printf("%-5d %-20s %-10d %-8d %-8d %-8d %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FileCount, r.AggregateTokens, r.FindingCount, r.AlertCount, model)
	}
	return nil
}

func printRunDetail(d *store.RunDetail) {
	r := d.Run
	fmt.Printf("Run %d (%s)\n", r.ID, r.RunUUID)
	fmt.Printf("  started:  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  model:    %s\n", r.Model)
	fmt.Printf("  tokens:   %d (capacity remaining %d)\n", r.AggregateTokens, r.CapacityRemaining)
	fmt.Printf("  files:    %d, findings: %d, alerts: %d\n", r.FileCount, r.FindingCount, r.AlertCount)
	if r.Summary != "" {
		fmt.Printf("  summary:  %s\n", r.Summary)
	}
	for _, f := range d.Files {
		fmt.Printf("  [%d] %s: %d tokens, %d removals, %d alerts\n",
			f.Position, f.FileName, f.TokenCount, f.RemovedCount, f.AlertCount)
	}
	for _, fd := range d.Findings {
		fmt.Printf("  %-8s %s — %s: %s\n", fd.Severity, fd.FileName, fd.Section, fd.Issue)
	}
}

func runMCP(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	rc, err := resolve(f)
	if err != nil {
		return err
	}

	cat, err := patterns.Load(rc.PatternsPath.Value)
	if err != nil {
		return err
	}
	est, err := buildEstimator(rc)
	if err != nil {
		return err
	}
	limits, err := buildLimits(rc)
	if err != nil {
		return err
	}

	// The run-history tool is optional; an unopenable database should
	// not keep scan and estimate from serving.
	var st store.Store
	if s, err := store.Open(store.Config{DBPath: rc.DBPath.Value}); err == nil {
		st = s
		defer s.Close()
	} else {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
	}

	srv := mcpsrv.NewServer(mcpsrv.ServerConfig{
		Catalogue: cat,
		Estimator: est,
		Limits:    limits,
		Store:     st,
		Version:   version,
	})
	return mcpsrv.ServeStdio(srv)
}

func printUsage() {
	fmt.Printf(`specwarden %s — Preflight and review construction specifications

Usage:
  specwarden <command> [arguments]

Commands:
  review <dir|files>   Preprocess, batch, and send to the review model
  scan <dir|files>     Show boilerplate removals and alerts, no API call
  estimate <dir|files> Token counts and capacity check, no API call
  patterns list        Show the active pattern catalogue
  patterns validate    Compile-check a --patterns YAML file
  runs                 List recorded review runs (--show <id> for detail)
  mcp                  Serve scan/estimate/runs tools over MCP stdio
  version              Print version

Flags:
  --config <path>      Config file (default ~/.specwarden/config.yaml)
  --llm <prov/model>   Review model, e.g. anthropic/claude-opus-4-5-20251101
  --patterns <path>    Pattern catalogue YAML (default: built-in rules)
  --db <path>          Run-history database (default ~/.specwarden/specwarden.db)
  -o, --out <dir>      Artifact output directory (default: reviews)
  --soft-limit <n>     Soft token budget (default 150000)
  --hard-limit <n>     Hard token budget (default 200000)
  -n, --dry-run        Skip the model call; still write artifacts
  -h, --help           Show this help message
`, version)
}
