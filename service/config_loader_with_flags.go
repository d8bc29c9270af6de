package service

import (
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/config"
)

// ConfigurationLoaderWithFlags wraps configuration loading with explicit flag tracking
type ConfigurationLoaderWithFlags struct {
	loader      *ConfigurationLoaderImpl
	flagTracker *config.FlagTracker
}

// NewConfigurationLoaderWithFlags creates a new configuration loader that tracks explicit flags
func NewConfigurationLoaderWithFlags(explicitFlags map[string]bool) *ConfigurationLoaderWithFlags {
	return &ConfigurationLoaderWithFlags{
		loader:      NewConfigurationLoader(),
		flagTracker: config.NewFlagTrackerWithFlags(explicitFlags),
	}
}

// WithTarget sets the path project configuration is searched from
func (c *ConfigurationLoaderWithFlags) WithTarget(targetPath string) *ConfigurationLoaderWithFlags {
	c.loader.WithTarget(targetPath)
	return c
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderWithFlags) LoadConfig(path string) (*domain.StructureRequest, error) {
	return c.loader.LoadConfig(path)
}

// LoadDefaultConfig loads the default configuration
func (c *ConfigurationLoaderWithFlags) LoadDefaultConfig() *domain.StructureRequest {
	return c.loader.LoadDefaultConfig()
}

// MergeConfig merges CLI flags with configuration file, respecting explicit flags
func (c *ConfigurationLoaderWithFlags) MergeConfig(base *domain.StructureRequest, override *domain.StructureRequest) *domain.StructureRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	ft := c.flagTracker
	merged := *base

	// Paths come from command arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	if ft.AnySet("json", "yaml", "dot", "msgpack") {
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

	merged.ShowIDs = ft.MergeBool(merged.ShowIDs, override.ShowIDs, "show-ids")
	merged.ShowTokens = ft.MergeBool(merged.ShowTokens, override.ShowTokens, "tokens")
	merged.Color = ft.MergeBool(merged.Color, override.Color, "no-color")

	merged.Recursive = ft.MergeBool(merged.Recursive, override.Recursive, "recursive")
	merged.IncludePatterns = ft.MergeStringSlice(merged.IncludePatterns, override.IncludePatterns, "include")
	merged.ExcludePatterns = ft.MergeStringSlice(merged.ExcludePatterns, override.ExcludePatterns, "exclude")
	merged.Methods = ft.MergeStringSlice(merged.Methods, override.Methods, "method")

	merged.MaxPasses = ft.MergeInt(merged.MaxPasses, override.MaxPasses, "max-passes")
	merged.Verify = ft.MergeBool(merged.Verify, override.Verify, "verify")
	merged.RefineLoops = ft.MergeBool(merged.RefineLoops, override.RefineLoops, "no-refine-loops")
	merged.BuildSynchronized = ft.MergeBool(merged.BuildSynchronized, override.BuildSynchronized, "no-synchronized")
	merged.CondenseSequences = ft.MergeBool(merged.CondenseSequences, override.CondenseSequences, "no-condense")
	merged.LabelEdges = ft.MergeBool(merged.LabelEdges, override.LabelEdges, "no-labels")
	merged.MergeIfs = ft.MergeBool(merged.MergeIfs, override.MergeIfs, "merge-ifs")
	merged.CondenseLoops = ft.MergeBool(merged.CondenseLoops, override.CondenseLoops, "condense-loops")

	merged.MethodTimeout = ft.MergeDuration(merged.MethodTimeout, override.MethodTimeout, "method-timeout")
	merged.Timeout = ft.MergeDuration(merged.Timeout, override.Timeout, "timeout")
	merged.MaxGoroutines = ft.MergeInt(merged.MaxGoroutines, override.MaxGoroutines, "jobs")

	merged.UseCache = ft.MergeBool(merged.UseCache, override.UseCache, "no-cache")

	return &merged
}

// ValidateConfig validates a configuration request
func (c *ConfigurationLoaderWithFlags) ValidateConfig(req *domain.StructureRequest) error {
	return c.loader.ValidateConfig(req)
}
