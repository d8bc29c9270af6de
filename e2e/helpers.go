package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const loopDocument = `class: demo/Loop
methods:
  - name: count
    entry: 0
    exit: 99
    blocks:
      - id: 0
        instructions:
          - {op: plain, text: "i = 0", offset: 0}
        successors: [1]
      - id: 1
        instructions:
          - {op: if, text: "i < n", offset: 1}
        successors: [2, 3]
      - id: 2
        instructions:
          - {op: plain, text: "i++", offset: 2}
        successors: [1]
      - id: 3
        instructions:
          - {op: return, offset: 3}
        successors: [99]
`

const tangleDocument = `class: demo/Tangle
methods:
  - name: twoEntries
    entry: 0
    exit: 99
    blocks:
      - id: 0
        instructions:
          - {op: if, text: c, offset: 0}
        successors: [1, 2]
      - id: 1
        instructions:
          - {op: plain, text: "a()", offset: 1}
        successors: [2]
      - id: 2
        instructions:
          - {op: plain, text: "b()", offset: 2}
        successors: [1]
`

// buildFlowstructBinary builds the CLI into a temporary directory
func buildFlowstructBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "flowstruct")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/flowstruct")

	// Build from the project root, one level up from e2e
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build flowstruct binary: %v\n%s", err, out)
	}
	return binaryPath
}

// createTestConfigFile writes a .flowstruct.toml that sends reports to
// outputDir and keeps the result cache below it
func createTestConfigFile(t *testing.T, testDir, outputDir string) {
	t.Helper()
	configFile := filepath.Join(testDir, ".flowstruct.toml")
	configContent := fmt.Sprintf("[output]\ndirectory = %q\n\n[cache]\ndirectory = %q\n",
		filepath.ToSlash(outputDir), filepath.ToSlash(filepath.Join(outputDir, "cache")))
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
}

func createTestDocument(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test document: %v", err)
	}
}
