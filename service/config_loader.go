package service

import (
	"os"
	"time"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct {
	targetPath string
}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// WithTarget sets the path project configuration is searched from
func (c *ConfigurationLoaderImpl) WithTarget(targetPath string) *ConfigurationLoaderImpl {
	c.targetPath = targetPath
	return c
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.StructureRequest, error) {
	cfg, err := config.LoadConfigWithTarget(path, c.targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return ConfigToRequest(cfg), nil
}

// LoadDefaultConfig loads the project configuration when one is found and
// the built-in defaults otherwise
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.StructureRequest {
	if req, err := c.LoadConfig(""); err == nil {
		return req
	}
	return ConfigToRequest(config.DefaultConfig())
}

// MergeConfig merges CLI values into the configuration; non-zero override
// values win
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.StructureRequest, override *domain.StructureRequest) *domain.StructureRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base

	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}
	if len(override.Methods) > 0 {
		merged.Methods = override.Methods
	}
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}
	if override.MaxPasses > 0 {
		merged.MaxPasses = override.MaxPasses
	}
	if override.MethodTimeout > 0 {
		merged.MethodTimeout = override.MethodTimeout
	}
	if override.Timeout > 0 {
		merged.Timeout = override.Timeout
	}
	if override.MaxGoroutines > 0 {
		merged.MaxGoroutines = override.MaxGoroutines
	}
	if override.CacheDir != "" {
		merged.CacheDir = override.CacheDir
	}

	return &merged
}

// ConfigToRequest converts internal config to a domain request
func ConfigToRequest(cfg *config.Config) *domain.StructureRequest {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	outputFormat, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		outputFormat = domain.OutputFormatText
	}

	return &domain.StructureRequest{
		Methods:           cfg.Input.Methods,
		OutputFormat:      outputFormat,
		OutputWriter:      os.Stdout,
		ShowIDs:           cfg.Output.ShowIDs,
		ShowTokens:        cfg.Output.ShowTokens,
		Color:             cfg.Output.Color,
		Recursive:         cfg.Input.Recursive,
		IncludePatterns:   cfg.Input.IncludePatterns,
		ExcludePatterns:   cfg.Input.ExcludePatterns,
		MaxPasses:         cfg.Structure.MaxPasses,
		Verify:            cfg.Structure.Verify,
		RefineLoops:       cfg.Structure.RefineLoops,
		BuildSynchronized: cfg.Structure.BuildSynchronized,
		CondenseSequences: cfg.Structure.CondenseSequences,
		LabelEdges:        cfg.Structure.LabelEdges,
		MergeIfs:          cfg.Structure.MergeIfs,
		CondenseLoops:     cfg.Structure.CondenseLoops,
		MethodTimeout:     time.Duration(cfg.Structure.MethodTimeoutMs) * time.Millisecond,
		Timeout:           time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
		MaxGoroutines:     cfg.Performance.MaxGoroutines,
		UseCache:          cfg.Cache.Enabled,
		CacheDir:          cfg.Cache.Directory,
	}
}

// ValidateConfig validates a configuration request
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.StructureRequest) error {
	if len(req.Paths) == 0 {
		return domain.NewInvalidInputError("no input paths specified", nil)
	}
	if req.MaxPasses < 0 {
		return domain.NewConfigError("max passes cannot be negative", nil)
	}
	if req.MethodTimeout < 0 || req.Timeout < 0 {
		return domain.NewConfigError("timeouts cannot be negative", nil)
	}
	if req.MaxGoroutines < 0 {
		return domain.NewConfigError("max goroutines cannot be negative", nil)
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return err
	}
	if req.UseCache && req.CacheDir == "" {
		return domain.NewConfigError("cache directory must be set when the cache is enabled", nil)
	}
	return nil
}

// CreateConfigTemplate writes the default .flowstruct.toml to path
func (c *ConfigurationLoaderImpl) CreateConfigTemplate(path string) error {
	content, err := config.GenerateDefaultConfigTOML()
	if err != nil {
		return domain.NewConfigError("failed to render default configuration", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return domain.NewConfigError("failed to write configuration file", err)
	}
	return nil
}
