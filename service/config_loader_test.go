package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationLoader_LoadDefaultConfig(t *testing.T) {
	loader := NewConfigurationLoader().WithTarget(t.TempDir())

	req := loader.LoadDefaultConfig()
	require.NotNil(t, req)

	assert.Equal(t, domain.OutputFormatText, req.OutputFormat)
	assert.True(t, req.RefineLoops)
	assert.True(t, req.LabelEdges)
	assert.False(t, req.Verify)
	assert.Equal(t, time.Duration(config.DefaultMethodTimeoutMs)*time.Millisecond, req.MethodTimeout)
	assert.Equal(t, time.Duration(config.DefaultTimeoutSeconds)*time.Second, req.Timeout)
	assert.Equal(t, config.DefaultMaxGoroutines, req.MaxGoroutines)
	assert.True(t, req.UseCache)
	assert.Equal(t, config.DefaultCacheDirectory, req.CacheDir)
}

func TestConfigurationLoader_LoadConfigFromProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectConfigFile), []byte(`
[structure]
verify = true
method_timeout_ms = 50

[output]
format = "dot"
`), 0o644))

	req, err := NewConfigurationLoader().WithTarget(dir).LoadConfig("")
	require.NoError(t, err)
	assert.True(t, req.Verify)
	assert.Equal(t, 50*time.Millisecond, req.MethodTimeout)
	assert.Equal(t, domain.OutputFormatDOT, req.OutputFormat)
}

func TestConfigurationLoader_LoadConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[structure\n"), 0o644))

	_, err := NewConfigurationLoader().LoadConfig(path)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeConfigError, domain.ErrorCode(err))
}

func TestConfigurationLoader_MergeConfig(t *testing.T) {
	loader := NewConfigurationLoader()

	base := &domain.StructureRequest{
		Paths:         []string{"base"},
		MaxPasses:     10,
		MaxGoroutines: 4,
		RefineLoops:   true,
	}
	override := &domain.StructureRequest{
		Paths:         []string{"override"},
		MaxGoroutines: 8,
	}

	merged := loader.MergeConfig(base, override)
	assert.Equal(t, []string{"override"}, merged.Paths)
	assert.Equal(t, 10, merged.MaxPasses)
	assert.Equal(t, 8, merged.MaxGoroutines)
	assert.True(t, merged.RefineLoops)

	assert.Same(t, override, loader.MergeConfig(nil, override))
	assert.Same(t, base, loader.MergeConfig(base, nil))
}

func TestConfigurationLoaderWithFlags_MergeConfig(t *testing.T) {
	base := ConfigToRequest(config.DefaultConfig())
	base.Methods = []string{"run*"}

	override := &domain.StructureRequest{
		Paths:         []string{"graphs"},
		OutputFormat:  domain.OutputFormatText,
		RefineLoops:   false,
		LabelEdges:    false,
		Verify:        true,
		MaxGoroutines: 1,
		UseCache:      false,
		MethodTimeout: time.Second,
	}

	t.Run("only explicit flags win", func(t *testing.T) {
		loader := NewConfigurationLoaderWithFlags(map[string]bool{
			"no-refine-loops": true,
			"verify":          true,
			"jobs":            true,
		})
		merged := loader.MergeConfig(base, override)

		assert.Equal(t, []string{"graphs"}, merged.Paths)
		assert.False(t, merged.RefineLoops)
		assert.True(t, merged.LabelEdges, "unset flag keeps config value")
		assert.True(t, merged.Verify)
		assert.Equal(t, 1, merged.MaxGoroutines)
		assert.True(t, merged.UseCache)
		assert.Equal(t, base.MethodTimeout, merged.MethodTimeout)
		assert.Equal(t, []string{"run*"}, merged.Methods)
	})

	t.Run("format flags", func(t *testing.T) {
		withDOT := *base
		withDOT.OutputFormat = domain.OutputFormatDOT

		merged := NewConfigurationLoaderWithFlags(nil).MergeConfig(&withDOT, override)
		assert.Equal(t, domain.OutputFormatDOT, merged.OutputFormat, "config format kept without a format flag")

		jsonOverride := *override
		jsonOverride.OutputFormat = domain.OutputFormatJSON
		merged = NewConfigurationLoaderWithFlags(map[string]bool{"json": true}).MergeConfig(&withDOT, &jsonOverride)
		assert.Equal(t, domain.OutputFormatJSON, merged.OutputFormat)
	})

	t.Run("durations and cache", func(t *testing.T) {
		loader := NewConfigurationLoaderWithFlags(map[string]bool{"method-timeout": true, "no-cache": true})
		merged := loader.MergeConfig(base, override)
		assert.Equal(t, time.Second, merged.MethodTimeout)
		assert.False(t, merged.UseCache)
	})

	t.Run("rewriting passes", func(t *testing.T) {
		withIfs := *override
		withIfs.MergeIfs = true
		withIfs.CondenseLoops = true

		merged := NewConfigurationLoaderWithFlags(map[string]bool{"merge-ifs": true}).MergeConfig(base, &withIfs)
		assert.True(t, merged.MergeIfs)
		assert.False(t, merged.CondenseLoops, "unset flag keeps config value")
	})
}

func TestConfigurationLoader_ValidateConfig(t *testing.T) {
	loader := NewConfigurationLoader()

	valid := ConfigToRequest(config.DefaultConfig())
	valid.Paths = []string{"."}
	assert.NoError(t, loader.ValidateConfig(valid))

	tests := []struct {
		name   string
		mutate func(r *domain.StructureRequest)
	}{
		{"no paths", func(r *domain.StructureRequest) { r.Paths = nil }},
		{"negative passes", func(r *domain.StructureRequest) { r.MaxPasses = -1 }},
		{"negative timeout", func(r *domain.StructureRequest) { r.MethodTimeout = -time.Second }},
		{"negative goroutines", func(r *domain.StructureRequest) { r.MaxGoroutines = -2 }},
		{"bad format", func(r *domain.StructureRequest) { r.OutputFormat = "html" }},
		{"cache without dir", func(r *domain.StructureRequest) { r.CacheDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := *valid
			tt.mutate(&req)
			assert.Error(t, loader.ValidateConfig(&req))
		})
	}
}

func TestConfigurationLoader_CreateConfigTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ProjectConfigFile)
	require.NoError(t, NewConfigurationLoader().CreateConfigTemplate(path))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}
