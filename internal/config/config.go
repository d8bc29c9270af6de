package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// Default structuring settings
const (
	// DefaultMaxPasses of zero derives the pass budget from the graph size
	DefaultMaxPasses = 0

	// DefaultMethodTimeoutMs bounds the time spent on a single method
	DefaultMethodTimeoutMs = 5000

	// DefaultMaxGoroutines bounds the number of methods structured at once
	DefaultMaxGoroutines = 4

	// DefaultTimeoutSeconds bounds a whole run
	DefaultTimeoutSeconds = 300

	// DefaultCacheDirectory holds persisted method results
	DefaultCacheDirectory = ".flowstruct/cache"

	// DefaultOutputFormat is used when no format flag or setting is given
	DefaultOutputFormat = "text"
)

// SupportedOutputFormats lists the values accepted by output.format
var SupportedOutputFormats = []string{"text", "json", "yaml", "dot", "msgpack"}

// Config represents the main configuration structure
type Config struct {
	// Structure holds the structuring engine options
	Structure StructureConfig `mapstructure:"structure" yaml:"structure" toml:"structure" comment:"Structuring engine"`

	// Input holds graph document discovery settings
	Input InputConfig `mapstructure:"input" yaml:"input" toml:"input" comment:"Graph document discovery"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" toml:"output" comment:"Report output"`

	// Performance holds concurrency and timeout settings
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance" toml:"performance" comment:"Concurrency and timeouts"`

	// Cache holds the persisted result cache settings
	Cache CacheConfig `mapstructure:"cache" yaml:"cache" toml:"cache" comment:"Result cache"`
}

// StructureConfig holds the structuring engine options
type StructureConfig struct {
	// MaxPasses bounds the recognizer passes per method; 0 derives it from the graph size
	MaxPasses int `mapstructure:"max_passes" yaml:"max_passes" toml:"max_passes" comment:"0 derives the pass budget from the graph size"`

	// Verify validates every statement tree after structuring
	Verify bool `mapstructure:"verify" yaml:"verify" toml:"verify" comment:"Validate every statement tree after structuring"`

	RefineLoops       bool `mapstructure:"refine_loops" yaml:"refine_loops" toml:"refine_loops" comment:"Turn infinite loops into while and do-while loops"`
	BuildSynchronized bool `mapstructure:"build_synchronized" yaml:"build_synchronized" toml:"build_synchronized" comment:"Recognize synchronized blocks"`
	CondenseSequences bool `mapstructure:"condense_sequences" yaml:"condense_sequences" toml:"condense_sequences" comment:"Flatten nested sequences"`
	LabelEdges        bool `mapstructure:"label_edges" yaml:"label_edges" toml:"label_edges" comment:"Decide which jumps need break/continue and labels"`
	MergeIfs          bool `mapstructure:"merge_ifs" yaml:"merge_ifs" toml:"merge_ifs" comment:"Fold nested and chained ifs into compound conditions"`
	CondenseLoops     bool `mapstructure:"condense_loops" yaml:"condense_loops" toml:"condense_loops" comment:"Turn infinite loops that return from their tail into while loops"`

	// MethodTimeoutMs bounds the time spent on one method; 0 disables it
	MethodTimeoutMs int `mapstructure:"method_timeout_ms" yaml:"method_timeout_ms" toml:"method_timeout_ms" comment:"Per-method timeout in milliseconds, 0 disables it"`
}

// InputConfig holds graph document discovery settings
type InputConfig struct {
	// IncludePatterns specifies doublestar patterns of documents to include
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" toml:"include_patterns"`

	// ExcludePatterns specifies doublestar patterns of documents to exclude
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`

	// Recursive controls whether directories are searched recursively
	Recursive bool `mapstructure:"recursive" yaml:"recursive" toml:"recursive"`

	// Methods restricts structuring to method names matching these patterns
	Methods []string `mapstructure:"methods" yaml:"methods" toml:"methods" comment:"Method name patterns, empty means all"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot, msgpack
	Format string `mapstructure:"format" yaml:"format" toml:"format" comment:"text, json, yaml, dot or msgpack"`

	// Directory receives report files; empty writes to stdout
	Directory string `mapstructure:"directory" yaml:"directory" toml:"directory" comment:"Write reports here instead of stdout"`

	ShowIDs    bool `mapstructure:"show_ids" yaml:"show_ids" toml:"show_ids" comment:"Show statement ids in the text report"`
	ShowTokens bool `mapstructure:"show_tokens" yaml:"show_tokens" toml:"show_tokens" comment:"Include the token stream in the report"`
	Color      bool `mapstructure:"color" yaml:"color" toml:"color" comment:"Colour the text report on terminals"`
}

// PerformanceConfig holds concurrency and timeout settings
type PerformanceConfig struct {
	// MaxGoroutines bounds the number of methods structured at once
	MaxGoroutines int `mapstructure:"max_goroutines" yaml:"max_goroutines" toml:"max_goroutines"`

	// TimeoutSeconds bounds a whole run
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// CacheConfig holds the persisted result cache settings
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Directory string `mapstructure:"directory" yaml:"directory" toml:"directory"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Structure: StructureConfig{
			MaxPasses:         DefaultMaxPasses,
			Verify:            false,
			RefineLoops:       true,
			BuildSynchronized: true,
			CondenseSequences: true,
			LabelEdges:        true,
			MethodTimeoutMs:   DefaultMethodTimeoutMs,
		},
		Input: InputConfig{
			IncludePatterns: []string{"**/*.yaml", "**/*.yml", "**/*.json", "**/*.msgpack"},
			ExcludePatterns: []string{},
			Recursive:       true,
			Methods:         []string{},
		},
		Output: OutputConfig{
			Format:     DefaultOutputFormat,
			ShowIDs:    false,
			ShowTokens: false,
			Color:      true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: DefaultCacheDirectory,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with the following priority:
//  1. configPath when given (YAML, JSON or TOML)
//  2. .flowstruct.toml found by walking up from targetPath
//  3. flowstruct.yaml, flowstruct.yml or flowstruct.json in the working or home directory
//  4. defaults
func LoadConfigWithTarget(configPath, targetPath string) (*Config, error) {
	if configPath != "" {
		if isTomlFile(configPath) {
			return NewTomlConfigLoader().LoadFile(configPath)
		}
		return loadWithViper(configPath)
	}

	if targetPath != "" {
		cfg, err := NewTomlConfigLoader().LoadConfig(startDir(targetPath))
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	if path := findDefaultConfig(); path != "" {
		return loadWithViper(path)
	}

	return DefaultConfig(), nil
}

// loadWithViper reads a YAML or JSON configuration file on top of the defaults
func loadWithViper(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findDefaultConfig looks for default configuration files in common locations
func findDefaultConfig() string {
	candidates := []string{
		"flowstruct.yaml",
		"flowstruct.yml",
		"flowstruct.json",
	}

	// Check current directory first
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// startDir returns the directory the project config search starts from
func startDir(targetPath string) string {
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		return filepath.Dir(targetPath)
	}
	return targetPath
}

func isTomlFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Structure.MaxPasses < 0 {
		return fmt.Errorf("structure.max_passes must be >= 0, got %d", c.Structure.MaxPasses)
	}
	if c.Structure.MethodTimeoutMs < 0 {
		return fmt.Errorf("structure.method_timeout_ms must be >= 0, got %d", c.Structure.MethodTimeoutMs)
	}

	// Validate output format
	if !isSupportedFormat(c.Output.Format) {
		return fmt.Errorf("invalid output.format '%s', must be one of: %s",
			c.Output.Format, strings.Join(SupportedOutputFormats, ", "))
	}

	// Validate patterns
	for _, pattern := range append(append([]string{}, c.Input.IncludePatterns...), c.Input.ExcludePatterns...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid file pattern '%s'", pattern)
		}
	}
	for _, pattern := range c.Input.Methods {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid method pattern '%s'", pattern)
		}
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if c.Cache.Enabled && c.Cache.Directory == "" {
		return fmt.Errorf("cache.directory must be set when the cache is enabled")
	}

	return nil
}

func isSupportedFormat(format string) bool {
	for _, f := range SupportedOutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
