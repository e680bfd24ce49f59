// Package config loads and holds counsel's configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for counsel.
type Config struct {
	// Rules controls which rule families run during advise
	Rules RulesConfig `koanf:"rules" toml:"rules"`

	// Duplicates configures the duplication detector
	Duplicates DuplicatesConfig `koanf:"duplicates" toml:"duplicates"`

	// Complexity configures the complexity scorer
	Complexity ComplexityConfig `koanf:"complexity" toml:"complexity"`

	// Naming configures the identifier heuristics
	Naming NamingConfig `koanf:"naming" toml:"naming"`

	// Score configures the composite readability score
	Score ScoreConfig `koanf:"score" toml:"score"`

	// Exclude defines file exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// RulesConfig toggles individual rule families.
type RulesConfig struct {
	Duplicates bool `koanf:"duplicates" toml:"duplicates"`
	Complexity bool `koanf:"complexity" toml:"complexity"`
	Naming     bool `koanf:"naming" toml:"naming"`
}

// DuplicatesConfig holds duplication detection settings.
type DuplicatesConfig struct {
	MinTokens            int     `koanf:"min_tokens" toml:"min_tokens"`
	SimilarityThreshold  float64 `koanf:"similarity_threshold" toml:"similarity_threshold"`
	ShingleSize          int     `koanf:"shingle_size" toml:"shingle_size"`
	NumHashFunctions     int     `koanf:"num_hash_functions" toml:"num_hash_functions"`
	NumBands             int     `koanf:"num_bands" toml:"num_bands"`
	NormalizeIdentifiers bool    `koanf:"normalize_identifiers" toml:"normalize_identifiers"`
	NormalizeLiterals    bool    `koanf:"normalize_literals" toml:"normalize_literals"`
	MinGroupSize         int     `koanf:"min_group_size" toml:"min_group_size"`
}

// ComplexityConfig holds complexity thresholds.
type ComplexityConfig struct {
	MaxCyclomatic uint32 `koanf:"max_cyclomatic" toml:"max_cyclomatic"`
	MaxCognitive  uint32 `koanf:"max_cognitive" toml:"max_cognitive"`
	MaxNesting    int    `koanf:"max_nesting" toml:"max_nesting"`
	MaxStatements int    `koanf:"max_statements" toml:"max_statements"`
}

// NamingConfig holds identifier heuristic settings.
type NamingConfig struct {
	MinLength       int      `koanf:"min_length" toml:"min_length"`
	AllowShort      []string `koanf:"allow_short" toml:"allow_short"`
	VagueNames      []string `koanf:"vague_names" toml:"vague_names"`
	KnownAbbrevs    []string `koanf:"known_abbreviations" toml:"known_abbreviations"`
	FlagNumericTail bool     `koanf:"flag_numeric_suffix" toml:"flag_numeric_suffix"`
}

// ScoreConfig weights the rule families in the composite score.
// Weights should sum to 1.0.
type ScoreConfig struct {
	Duplication float64 `koanf:"duplication" toml:"duplication"`
	Complexity  float64 `koanf:"complexity" toml:"complexity"`
	Naming      float64 `koanf:"naming" toml:"naming"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{
			Duplicates: true,
			Complexity: true,
			Naming:     true,
		},
		Duplicates: DuplicatesConfig{
			MinTokens:            50,
			SimilarityThreshold:  0.8,
			ShingleSize:          5,
			NumHashFunctions:     200,
			NumBands:             20,
			NormalizeIdentifiers: true,
			NormalizeLiterals:    true,
			MinGroupSize:         2,
		},
		Complexity: ComplexityConfig{
			MaxCyclomatic: 10,
			MaxCognitive:  15,
			MaxNesting:    4,
			MaxStatements: 40,
		},
		Naming: NamingConfig{
			MinLength:       3,
			AllowShort:      []string{"i", "j", "k", "n", "x", "y", "z", "ok", "id", "db", "fd", "ip", "wg", "tx", "rx", "mu"},
			VagueNames:      []string{"data", "info", "temp", "tmp", "obj", "foo", "bar", "stuff", "thing", "value", "val", "result2", "misc"},
			KnownAbbrevs:    []string{"mgr", "cnt", "idx", "num", "str", "usr", "pwd", "svc", "hdlr", "proc", "calc", "upd", "del", "impl"},
			FlagNumericTail: true,
		},
		Score: ScoreConfig{
			Duplication: 0.40,
			Complexity:  0.35,
			Naming:      0.25,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.go",
				"*.test.ts",
				"*_test.py",
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".counsel",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".counsel/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
func LoadOrDefault() *Config {
	names := []string{
		"counsel.toml",
		"counsel.yaml",
		"counsel.yml",
		"counsel.json",
		".counsel.toml",
		".counsel.yaml",
		".counsel.yml",
		".counsel.json",
	}

	for _, dir := range []string{".", ".counsel"} {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}

	return Default()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
