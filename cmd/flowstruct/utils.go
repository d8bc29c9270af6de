package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/flowstruct/internal/config"
)

// generateTimestampedFileName generates a filename with timestamp suffix
func generateTimestampedFileName(command, extension string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", command, timestamp, extension)
}

// resolveOutputDirectory returns the configured report directory, or ""
// when reports go to stdout
func resolveOutputDirectory(configPath, targetPath string) (string, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		return "", nil
	}
	return cfg.Output.Directory, nil
}

// generateOutputFilePath returns a timestamped report path inside the
// configured output directory. An empty path means stdout.
func generateOutputFilePath(command, extension, configPath, targetPath string) (string, error) {
	outputDir, err := resolveOutputDirectory(configPath, targetPath)
	if err != nil || outputDir == "" {
		return "", err
	}

	if mkErr := os.MkdirAll(outputDir, 0o755); mkErr != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, mkErr)
	}
	return filepath.Join(outputDir, generateTimestampedFileName(command, extension)), nil
}

// getTargetPathFromArgs extracts the first argument as target path, or returns empty string
func getTargetPathFromArgs(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
