// Package config resolves runtime configuration from three layers:
// YAML file, environment, then CLI flags, with later layers winning.
// Every resolved value remembers where it came from so `specwarden
// config` style debugging stays possible.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueSource says which layer supplied a value.
type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a configuration value plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-layer overrides.
type ResolveOptions struct {
	ConfigPath   string
	CLILLM       string // provider/model
	CLIDBPath    string
	CLIPatterns  string
	CLIOutputDir string
	CLISoftLimit string
	CLIHardLimit string
}

// ResolvedConfig is the fully resolved configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath        ResolvedValue `json:"db_path"`
	PatternsPath  ResolvedValue `json:"patterns_path"`
	OutputDir     ResolvedValue `json:"output_dir"`
	TokenizerJSON ResolvedValue `json:"tokenizer_json"`

	LLM    ResolvedValue `json:"llm"` // provider/model
	APIKey ResolvedValue `json:"-"`

	SoftLimit ResolvedValue `json:"soft_limit"`
	HardLimit ResolvedValue `json:"hard_limit"`
}

type fileConfig struct {
	DBPath        string `yaml:"db_path"`
	PatternsPath  string `yaml:"patterns_path"`
	OutputDir     string `yaml:"output_dir"`
	TokenizerJSON string `yaml:"tokenizer_json"`
	LLM           struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	Limits struct {
		Soft int `yaml:"soft"`
		Hard int `yaml:"hard"`
	} `yaml:"limits"`
}

// DefaultConfigPath is where Resolve looks when no --config is given.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".specwarden", "config.yaml")
}

// Resolve merges config file, environment, and CLI flags.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		OutputDir:  ResolvedValue{Value: "reviews", Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadFile(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.PatternsPath, cfg.PatternsPath, SourceConfig, path)
		apply(&out.OutputDir, cfg.OutputDir, SourceConfig, path)
		apply(&out.TokenizerJSON, cfg.TokenizerJSON, SourceConfig, path)
		if cfg.LLM.Provider != "" {
			llm := cfg.LLM.Provider
			if cfg.LLM.Model != "" {
				llm += "/" + cfg.LLM.Model
			}
			apply(&out.LLM, llm, SourceConfig, path)
		}
		apply(&out.APIKey, cfg.LLM.APIKey, SourceConfig, path)
		if cfg.Limits.Soft > 0 {
			apply(&out.SoftLimit, strconv.Itoa(cfg.Limits.Soft), SourceConfig, path)
		}
		if cfg.Limits.Hard > 0 {
			apply(&out.HardLimit, strconv.Itoa(cfg.Limits.Hard), SourceConfig, path)
		}
	}

	applyEnv(&out.DBPath, "SPECWARDEN_DB")
	applyEnv(&out.PatternsPath, "SPECWARDEN_PATTERNS")
	applyEnv(&out.OutputDir, "SPECWARDEN_OUTPUT")
	applyEnv(&out.TokenizerJSON, "SPECWARDEN_TOKENIZER")
	applyEnv(&out.LLM, "SPECWARDEN_LLM")
	applyEnv(&out.SoftLimit, "SPECWARDEN_SOFT_LIMIT")
	applyEnv(&out.HardLimit, "SPECWARDEN_HARD_LIMIT")

	apply(&out.LLM, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.PatternsPath, opts.CLIPatterns, SourceCLI, "--patterns")
	apply(&out.OutputDir, opts.CLIOutputDir, SourceCLI, "--out")
	apply(&out.SoftLimit, opts.CLISoftLimit, SourceCLI, "--soft-limit")
	apply(&out.HardLimit, opts.CLIHardLimit, SourceCLI, "--hard-limit")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// Limit parses a resolved limit value, falling back when unset.
func (r ResolvedConfig) Limit(v ResolvedValue, fallback int) (int, error) {
	if strings.TrimSpace(v.Value) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid token limit %q (from %s): %w", v.Value, v.From, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("token limit must be positive, got %d (from %s)", n, v.From)
	}
	return n, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
