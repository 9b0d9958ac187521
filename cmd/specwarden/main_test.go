package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specwarden/specwarden/internal/config"
)

func TestParseFlags_MixedFlagsAndPaths(t *testing.T) {
	f, err := parseFlags([]string{
		"specs/22 05 00.txt",
		"--llm", "anthropic/claude-opus-4-5-20251101",
		"specs/23 05 00.txt",
		"--dry-run",
		"--soft-limit", "120000",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if len(f.paths) != 2 || f.paths[0] != "specs/22 05 00.txt" {
		t.Fatalf("paths lost: %v", f.paths)
	}
	if !f.dryRun {
		t.Fatal("--dry-run not parsed")
	}
	if f.llm != "anthropic/claude-opus-4-5-20251101" || f.softLimit != "120000" {
		t.Fatalf("flag values wrong: %+v", f)
	}
}

func TestParseFlags_MissingValue(t *testing.T) {
	if _, err := parseFlags([]string{"--llm"}); err == nil {
		t.Fatal("expected error for flag without value")
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	if _, err := parseFlags([]string{"--frobnicate"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestBuildLimits_Defaults(t *testing.T) {
	var rc config.ResolvedConfig
	limits, err := buildLimits(rc)
	if err != nil {
		t.Fatalf("buildLimits: %v", err)
	}
	if limits.Soft != 150_000 || limits.Hard != 200_000 {
		t.Fatalf("unexpected defaults: %+v", limits)
	}
}

func TestBuildLimits_SoftAboveHardRejected(t *testing.T) {
	rc := config.ResolvedConfig{
		SoftLimit: config.ResolvedValue{Value: "300000", From: "--soft-limit"},
		HardLimit: config.ResolvedValue{Value: "200000", From: "--hard-limit"},
	}
	if _, err := buildLimits(rc); err == nil {
		t.Fatal("expected error when soft exceeds hard")
	}
}

func TestReadInputs_DirAndFiles(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "section.txt")
	if err := os.WriteFile(path, []byte("Pipe shall be copper."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fromDir, err := readInputs([]string{tmp})
	if err != nil {
		t.Fatalf("readInputs(dir): %v", err)
	}
	if len(fromDir) != 1 || fromDir[0].FileName != "section.txt" {
		t.Fatalf("unexpected dir read: %+v", fromDir)
	}

	fromFile, err := readInputs([]string{path})
	if err != nil {
		t.Fatalf("readInputs(file): %v", err)
	}
	if len(fromFile) != 1 || fromFile[0].RawText != "Pipe shall be copper." {
		t.Fatalf("unexpected file read: %+v", fromFile)
	}

	if _, err := readInputs(nil); err == nil {
		t.Fatal("expected error for empty input list")
	}
}
