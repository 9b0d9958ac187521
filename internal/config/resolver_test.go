package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolve_Precedence_ConfigEnvCLI(t *testing.T) {
	cfgPath := writeConfig(t, `db_path: ~/.specwarden/from-config.db
output_dir: from-config-reviews
llm:
  provider: openrouter
  model: from-config-model
limits:
  soft: 100000
`)

	t.Setenv("SPECWARDEN_DB", "~/from-env.db")
	t.Setenv("SPECWARDEN_LLM", "anthropic/from-env-model")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath: cfgPath,
		CLILLM:     "anthropic/from-cli-model",
		CLIDBPath:  "/tmp/from-cli.db",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI || resolved.DBPath.Value != "/tmp/from-cli.db" {
		t.Fatalf("expected CLI db path, got %+v", resolved.DBPath)
	}
	if resolved.LLM.Source != SourceCLI || resolved.LLM.Value != "anthropic/from-cli-model" {
		t.Fatalf("expected CLI llm, got %+v", resolved.LLM)
	}
	if resolved.OutputDir.Source != SourceConfig || resolved.OutputDir.Value != "from-config-reviews" {
		t.Fatalf("expected config output dir, got %+v", resolved.OutputDir)
	}
	if resolved.SoftLimit.Source != SourceConfig || resolved.SoftLimit.Value != "100000" {
		t.Fatalf("expected config soft limit, got %+v", resolved.SoftLimit)
	}
}

func TestResolve_EnvOverridesConfig(t *testing.T) {
	cfgPath := writeConfig(t, "patterns_path: /etc/specwarden/rules.yaml\n")
	t.Setenv("SPECWARDEN_PATTERNS", "/opt/rules.yaml")

	resolved, err := Resolve(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.PatternsPath.Source != SourceEnv || resolved.PatternsPath.Value != "/opt/rules.yaml" {
		t.Fatalf("expected env patterns path, got %+v", resolved.PatternsPath)
	}
	if resolved.PatternsPath.From != "SPECWARDEN_PATTERNS" {
		t.Fatalf("provenance lost: %+v", resolved.PatternsPath)
	}
}

func TestResolve_MissingConfigFileIsFine(t *testing.T) {
	resolved, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if resolved.OutputDir.Value != "reviews" || resolved.OutputDir.Source != SourceDefault {
		t.Fatalf("expected built-in output dir default, got %+v", resolved.OutputDir)
	}
}

func TestResolve_MalformedConfigErrors(t *testing.T) {
	cfgPath := writeConfig(t, "llm: [not a mapping\n")
	if _, err := Resolve(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected YAML parse error")
	}
}

func TestResolve_ExpandsDBPathTilde(t *testing.T) {
	resolved, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
		CLIDBPath:  "~/.specwarden/test.db",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.DBPath.Value[0] == '~' {
		t.Fatalf("tilde not expanded: %q", resolved.DBPath.Value)
	}
}

func TestLimit_Parsing(t *testing.T) {
	var rc ResolvedConfig

	n, err := rc.Limit(ResolvedValue{}, 150_000)
	if err != nil || n != 150_000 {
		t.Fatalf("unset limit must fall back: %d, %v", n, err)
	}

	n, err = rc.Limit(ResolvedValue{Value: "200000", From: "--hard-limit"}, 0)
	if err != nil || n != 200_000 {
		t.Fatalf("numeric limit: %d, %v", n, err)
	}

	if _, err := rc.Limit(ResolvedValue{Value: "lots", From: "--soft-limit"}, 0); err == nil {
		t.Fatal("expected parse error for non-numeric limit")
	}
	if _, err := rc.Limit(ResolvedValue{Value: "-5", From: "--soft-limit"}, 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}
