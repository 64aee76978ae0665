// Package config resolves sveltekb settings from config file, environment,
// and CLI flags, tracking where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueSource identifies where a resolved value came from.
type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Backend names for the search index.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ResolvedValue is a setting plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath    string
	CLIDBPath     string
	CLIBackend    string
	CLIKnowledge  string
	CLIExamples   string
	CLISynonyms   string
}

// ResolvedConfig is the full resolved configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath        ResolvedValue `json:"db_path"`
	Backend       ResolvedValue `json:"backend"`
	KnowledgePath ResolvedValue `json:"knowledge_path"`
	ExamplesPath  ResolvedValue `json:"examples_path"`
	SynonymsPath  ResolvedValue `json:"synonyms_path"`
}

type fileConfig struct {
	DBPath   string `yaml:"db_path"`
	Backend  string `yaml:"backend"`
	Corpus   struct {
		Knowledge string `yaml:"knowledge"`
		Examples  string `yaml:"examples"`
	} `yaml:"corpus"`
	Synonyms string `yaml:"synonyms"`
}

// DefaultConfigPath returns ~/.sveltekb/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sveltekb", "config.yaml")
}

// Resolve merges config file, environment, and CLI values.
// Precedence: CLI > env > config file > default.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Backend, cfg.Backend, SourceConfig, path)
		apply(&out.KnowledgePath, cfg.Corpus.Knowledge, SourceConfig, path)
		apply(&out.ExamplesPath, cfg.Corpus.Examples, SourceConfig, path)
		apply(&out.SynonymsPath, cfg.Synonyms, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "SVELTEKB_DB_PATH")
	applyEnv(&out.Backend, "SVELTEKB_BACKEND")
	applyEnv(&out.KnowledgePath, "SVELTEKB_KNOWLEDGE")
	applyEnv(&out.ExamplesPath, "SVELTEKB_EXAMPLES")
	applyEnv(&out.SynonymsPath, "SVELTEKB_SYNONYMS")

	applyCLI(&out.DBPath, opts.CLIDBPath)
	applyCLI(&out.Backend, opts.CLIBackend)
	applyCLI(&out.KnowledgePath, opts.CLIKnowledge)
	applyCLI(&out.ExamplesPath, opts.CLIExamples)
	applyCLI(&out.SynonymsPath, opts.CLISynonyms)

	applyDefault(&out.Backend, BackendSQLite)

	if out.Backend.Value != BackendSQLite && out.Backend.Value != BackendMemory {
		return out, fmt.Errorf("invalid backend %q (want %q or %q)",
			out.Backend.Value, BackendSQLite, BackendMemory)
	}

	return out, nil
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func apply(rv *ResolvedValue, value string, source ValueSource, from string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	rv.Value = value
	rv.Source = source
	rv.From = from
}

func applyEnv(rv *ResolvedValue, key string) {
	apply(rv, os.Getenv(key), SourceEnv, key)
}

func applyCLI(rv *ResolvedValue, value string) {
	apply(rv, value, SourceCLI, "")
}

func applyDefault(rv *ResolvedValue, value string) {
	if rv.Value == "" {
		rv.Value = value
		rv.Source = SourceDefault
	}
}
