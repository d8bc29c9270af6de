package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ProjectConfigFile is the name of the project configuration file
const ProjectConfigFile = ".flowstruct.toml"

// FlowstructTomlConfig represents the structure of .flowstruct.toml
type FlowstructTomlConfig struct {
	Structure   TomlStructureConfig   `toml:"structure"`
	Input       TomlInputConfig       `toml:"input"`
	Output      TomlOutputConfig      `toml:"output"`
	Performance TomlPerformanceConfig `toml:"performance"`
	Cache       TomlCacheConfig       `toml:"cache"`
}

// TomlStructureConfig represents the [structure] section
type TomlStructureConfig struct {
	MaxPasses         *int  `toml:"max_passes"`
	Verify            *bool `toml:"verify"`             // pointer to detect unset
	RefineLoops       *bool `toml:"refine_loops"`       // pointer to detect unset
	BuildSynchronized *bool `toml:"build_synchronized"` // pointer to detect unset
	CondenseSequences *bool `toml:"condense_sequences"` // pointer to detect unset
	LabelEdges        *bool `toml:"label_edges"`        // pointer to detect unset
	MergeIfs          *bool `toml:"merge_ifs"`
	CondenseLoops     *bool `toml:"condense_loops"`
	MethodTimeoutMs   *int  `toml:"method_timeout_ms"`
}

// TomlInputConfig represents the [input] section
type TomlInputConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"` // pointer to detect unset
	Methods         []string `toml:"methods"`
}

// TomlOutputConfig represents the [output] section
type TomlOutputConfig struct {
	Format     string `toml:"format"`
	Directory  string `toml:"directory"`
	ShowIDs    *bool  `toml:"show_ids"`    // pointer to detect unset
	ShowTokens *bool  `toml:"show_tokens"` // pointer to detect unset
	Color      *bool  `toml:"color"`       // pointer to detect unset
}

// TomlPerformanceConfig represents the [performance] section
type TomlPerformanceConfig struct {
	MaxGoroutines  int `toml:"max_goroutines"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// TomlCacheConfig represents the [cache] section
type TomlCacheConfig struct {
	Enabled   *bool  `toml:"enabled"` // pointer to detect unset
	Directory string `toml:"directory"`
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig looks for .flowstruct.toml in startDir and its parents. It
// returns nil without error when there is none.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	configPath, err := l.FindConfigFile(startDir)
	if err != nil {
		return nil, nil
	}
	return l.LoadFile(configPath)
}

// LoadFile parses a TOML configuration file on top of the defaults
func (l *TomlConfigLoader) LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return l.Parse(data, configPath)
}

// Parse decodes TOML data on top of the defaults. name is used in errors.
func (l *TomlConfigLoader) Parse(data []byte, name string) (*Config, error) {
	var tomlCfg FlowstructTomlConfig
	if err := toml.Unmarshal(data, &tomlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	config := DefaultConfig()
	l.mergeTomlConfig(config, &tomlCfg)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", name, err)
	}
	return config, nil
}

// FindConfigFile walks up the directory tree to find .flowstruct.toml
func (l *TomlConfigLoader) FindConfigFile(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// mergeTomlConfig merges .flowstruct.toml values into defaults using
// pointer booleans to detect unset values
func (l *TomlConfigLoader) mergeTomlConfig(defaults *Config, t *FlowstructTomlConfig) {
	// Structure
	if t.Structure.MaxPasses != nil {
		defaults.Structure.MaxPasses = *t.Structure.MaxPasses
	}
	if t.Structure.MethodTimeoutMs != nil {
		defaults.Structure.MethodTimeoutMs = *t.Structure.MethodTimeoutMs
	}
	mergeBool(&defaults.Structure.Verify, t.Structure.Verify)
	mergeBool(&defaults.Structure.RefineLoops, t.Structure.RefineLoops)
	mergeBool(&defaults.Structure.BuildSynchronized, t.Structure.BuildSynchronized)
	mergeBool(&defaults.Structure.CondenseSequences, t.Structure.CondenseSequences)
	mergeBool(&defaults.Structure.LabelEdges, t.Structure.LabelEdges)
	mergeBool(&defaults.Structure.MergeIfs, t.Structure.MergeIfs)
	mergeBool(&defaults.Structure.CondenseLoops, t.Structure.CondenseLoops)

	// Input
	if len(t.Input.IncludePatterns) > 0 {
		defaults.Input.IncludePatterns = t.Input.IncludePatterns
	}
	if len(t.Input.ExcludePatterns) > 0 {
		defaults.Input.ExcludePatterns = t.Input.ExcludePatterns
	}
	if len(t.Input.Methods) > 0 {
		defaults.Input.Methods = t.Input.Methods
	}
	mergeBool(&defaults.Input.Recursive, t.Input.Recursive)

	// Output
	if t.Output.Format != "" {
		defaults.Output.Format = t.Output.Format
	}
	if t.Output.Directory != "" {
		defaults.Output.Directory = t.Output.Directory
	}
	mergeBool(&defaults.Output.ShowIDs, t.Output.ShowIDs)
	mergeBool(&defaults.Output.ShowTokens, t.Output.ShowTokens)
	mergeBool(&defaults.Output.Color, t.Output.Color)

	// Performance
	if t.Performance.MaxGoroutines > 0 {
		defaults.Performance.MaxGoroutines = t.Performance.MaxGoroutines
	}
	if t.Performance.TimeoutSeconds > 0 {
		defaults.Performance.TimeoutSeconds = t.Performance.TimeoutSeconds
	}

	// Cache
	mergeBool(&defaults.Cache.Enabled, t.Cache.Enabled)
	if t.Cache.Directory != "" {
		defaults.Cache.Directory = t.Cache.Directory
	}
}

// mergeBool only overrides dst when the value was explicitly set
func mergeBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// GetSupportedConfigFiles returns the configuration file names that are searched
func (l *TomlConfigLoader) GetSupportedConfigFiles() []string {
	return []string{ProjectConfigFile, "flowstruct.yaml", "flowstruct.yml", "flowstruct.json"}
}
