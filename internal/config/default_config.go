package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

const defaultConfigHeader = `# flowstruct configuration
#
# Settings here apply to every run started inside this directory tree.
# Command line flags take precedence over values in this file.

`

// GenerateDefaultConfigTOML renders the default configuration as a
// commented .flowstruct.toml document
func GenerateDefaultConfigTOML() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(defaultConfigHeader)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(DefaultConfig()); err != nil {
		return "", fmt.Errorf("failed to render default config: %w", err)
	}
	return buf.String(), nil
}

// LoadDefaultConfigFromTOML parses the rendered default config, so the
// written file and DefaultConfig cannot drift apart
func LoadDefaultConfigFromTOML() (*Config, error) {
	data, err := GenerateDefaultConfigTOML()
	if err != nil {
		return nil, err
	}
	return NewTomlConfigLoader().Parse([]byte(data), ProjectConfigFile)
}
