package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultMaxPasses, cfg.Structure.MaxPasses)
	assert.True(t, cfg.Structure.RefineLoops)
	assert.True(t, cfg.Structure.BuildSynchronized)
	assert.True(t, cfg.Structure.CondenseSequences)
	assert.True(t, cfg.Structure.LabelEdges)
	assert.False(t, cfg.Structure.Verify)
	assert.False(t, cfg.Structure.MergeIfs, "condition rewriting is opt-in")
	assert.False(t, cfg.Structure.CondenseLoops)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCacheDirectory, cfg.Cache.Directory)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"negative passes", func(c *Config) { c.Structure.MaxPasses = -1 }, "max_passes"},
		{"negative method timeout", func(c *Config) { c.Structure.MethodTimeoutMs = -5 }, "method_timeout_ms"},
		{"unknown format", func(c *Config) { c.Output.Format = "html" }, "invalid output.format 'html'"},
		{"bad include pattern", func(c *Config) { c.Input.IncludePatterns = []string{"[a-"} }, "invalid file pattern"},
		{"bad method pattern", func(c *Config) { c.Input.Methods = []string{"run{"} }, "invalid method pattern"},
		{"negative goroutines", func(c *Config) { c.Performance.MaxGoroutines = -1 }, "max_goroutines"},
		{"negative timeout", func(c *Config) { c.Performance.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"cache without directory", func(c *Config) { c.Cache.Directory = "" }, "cache.directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("disabled cache needs no directory", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Cache.Enabled = false
		cfg.Cache.Directory = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flowstruct.yaml", `
structure:
  max_passes: 200
  verify: true
  refine_loops: false
output:
  format: json
performance:
  max_goroutines: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Structure.MaxPasses)
	assert.True(t, cfg.Structure.Verify)
	assert.False(t, cfg.Structure.RefineLoops)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Performance.MaxGoroutines)

	// unset values keep their defaults
	assert.True(t, cfg.Structure.LabelEdges)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Performance.TimeoutSeconds)
}

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flowstruct.json", `{"output": {"format": "dot", "show_ids": true}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dot", cfg.Output.Format)
	assert.True(t, cfg.Output.ShowIDs)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, dir, "bad.yaml", "output:\n  format: html\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfigWithTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ProjectConfigFile, "[structure]\nverify = true\n")
	target := writeFile(t, root, "graphs/nested/a.yaml", "class: A\n")

	t.Run("walks up from a file target", func(t *testing.T) {
		cfg, err := LoadConfigWithTarget("", target)
		require.NoError(t, err)
		assert.True(t, cfg.Structure.Verify)
	})

	t.Run("explicit toml path", func(t *testing.T) {
		path := writeFile(t, root, "other.toml", "[output]\nformat = \"yaml\"\n")
		cfg, err := LoadConfigWithTarget(path, target)
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.Output.Format)
		assert.False(t, cfg.Structure.Verify, "explicit file wins over the project file")
	})
}
