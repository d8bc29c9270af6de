package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/config"
	"github.com/spf13/cobra"
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

// writeProject creates a directory holding one graph document and a
// configuration file that disables the result cache
func writeProject(t *testing.T, document string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "graph.yaml"), []byte(document), 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.ProjectConfigFile), []byte("[cache]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func executeCommand(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func assertFlags(t *testing.T, cmd *cobra.Command, names ...string) {
	t.Helper()
	for _, name := range names {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected flag '%s' to be defined", name)
		}
	}
}

func TestStructureCommandInterface(t *testing.T) {
	cobraCmd := NewStructureCommand().CreateCobraCommand()

	if cobraCmd.Use != "structure [paths...]" {
		t.Errorf("Expected command use 'structure [paths...]', got '%s'", cobraCmd.Use)
	}
	if cobraCmd.Short == "" {
		t.Error("Command should have a short description")
	}

	assertFlags(t, cobraCmd,
		"json", "yaml", "dot", "msgpack", "output", "config",
		"recursive", "include", "exclude", "method",
		"max-passes", "verify", "no-refine-loops", "no-synchronized", "no-condense", "no-labels",
		"merge-ifs", "condense-loops",
		"jobs", "method-timeout", "timeout", "no-cache",
		"show-ids", "tokens", "no-color")
}

func TestCheckCommandInterface(t *testing.T) {
	cobraCmd := NewCheckCommand().CreateCobraCommand()

	if cobraCmd.Use != "check [paths...]" {
		t.Errorf("Expected command use 'check [paths...]', got '%s'", cobraCmd.Use)
	}
	assertFlags(t, cobraCmd, "config", "quiet", "allow-irreducible", "method", "jobs", "no-cache")
}

func TestStructureCommandRequiresPath(t *testing.T) {
	_, _, err := executeCommand(NewStructureCmd())
	if err == nil {
		t.Fatal("Expected an error without paths")
	}
}

func TestStructureCommandJSON(t *testing.T) {
	dir := writeProject(t, loopDocument)

	stdout, _, err := executeCommand(NewStructureCmd(), "--json", dir)
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}

	var response domain.StructureResponse
	if err := json.Unmarshal([]byte(stdout), &response); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if response.Summary.TotalMethods != 1 || response.Summary.Structured != 1 {
		t.Errorf("Expected one structured method, got %+v", response.Summary)
	}
}

func TestStructureCommandText(t *testing.T) {
	dir := writeProject(t, loopDocument)

	stdout, _, err := executeCommand(NewStructureCmd(), "--no-color", dir)
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}
	if !strings.Contains(stdout, "demo/Loop.count") {
		t.Errorf("Expected the method name in the text report, got:\n%s", stdout)
	}
}

func TestStructureCommandConflictingFormats(t *testing.T) {
	dir := writeProject(t, loopDocument)

	_, _, err := executeCommand(NewStructureCmd(), "--json", "--yaml", dir)
	if err == nil {
		t.Fatal("Expected an error for two output formats")
	}
}

func TestStructureCommandOutputFile(t *testing.T) {
	dir := writeProject(t, loopDocument)
	outputPath := filepath.Join(t.TempDir(), "trees.dot")

	_, stderr, err := executeCommand(NewStructureCmd(), "--dot", "-o", outputPath, dir)
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("report was not written: %v", err)
	}
	if !strings.Contains(string(content), "digraph") {
		t.Errorf("Expected a DOT report, got:\n%s", content)
	}
	if !strings.Contains(stderr, outputPath) {
		t.Errorf("Expected the report path on stderr, got: %s", stderr)
	}
}

func TestCheckCommand(t *testing.T) {
	t.Run("passes on reducible graphs", func(t *testing.T) {
		dir := writeProject(t, loopDocument)

		_, stderr, err := executeCommand(NewCheckCmd(), dir)
		if err != nil {
			t.Fatalf("check failed: %v\n%s", err, stderr)
		}
		if !strings.Contains(stderr, "1 method(s) structured") {
			t.Errorf("Expected a success line, got: %s", stderr)
		}
	})

	t.Run("fails on irreducible graphs", func(t *testing.T) {
		dir := writeProject(t, tangleDocument)

		_, stderr, err := executeCommand(NewCheckCmd(), dir)
		if err == nil {
			t.Fatal("Expected check to fail")
		}
		if !strings.Contains(err.Error(), "found 1 problem method(s)") {
			t.Errorf("Unexpected error: %v", err)
		}
		if !strings.Contains(stderr, "demo/Tangle.twoEntries: irreducible") {
			t.Errorf("Expected the method on stderr, got: %s", stderr)
		}
	})

	t.Run("allow irreducible", func(t *testing.T) {
		dir := writeProject(t, tangleDocument)

		_, stderr, err := executeCommand(NewCheckCmd(), "--allow-irreducible", "--quiet", dir)
		if err != nil {
			t.Fatalf("check failed: %v\n%s", err, stderr)
		}
	})
}

func TestInitCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "flowstruct.toml")

	stdout, _, err := executeCommand(NewInitCmd(), "--config", configPath)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(stdout, "Configuration file created") {
		t.Errorf("Expected a success message, got: %s", stdout)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated file does not load: %v", err)
	}
	if cfg.Structure.MethodTimeoutMs != config.DefaultMethodTimeoutMs {
		t.Errorf("Expected default method timeout, got %d", cfg.Structure.MethodTimeoutMs)
	}

	// A second run refuses to overwrite
	if _, _, err := executeCommand(NewInitCmd(), "--config", configPath); err == nil {
		t.Error("Expected an error for an existing file")
	}
	if _, _, err := executeCommand(NewInitCmd(), "--config", configPath, "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(NewVersionCmd(), "--short")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Error("Expected a version string")
	}

	full, _, err := executeCommand(NewVersionCmd())
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(full, strings.TrimSpace(stdout)) {
		t.Errorf("Full version %q should contain %q", full, stdout)
	}
}

func TestGetExplicitFlags(t *testing.T) {
	cmd := NewStructureCmd()
	if err := cmd.ParseFlags([]string{"--verify", "-j", "2"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	flags := GetExplicitFlags(cmd)
	if !flags["verify"] || !flags["jobs"] {
		t.Errorf("Expected verify and jobs to be explicit, got %v", flags)
	}
	if flags["json"] {
		t.Error("json was not set")
	}
}

func TestGenerateOutputFilePath(t *testing.T) {
	t.Run("no directory configured", func(t *testing.T) {
		dir := writeProject(t, loopDocument)
		path, err := generateOutputFilePath("structure", "json", "", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "" {
			t.Errorf("Expected stdout, got %s", path)
		}
	})

	t.Run("configured directory", func(t *testing.T) {
		dir := t.TempDir()
		reports := filepath.Join(dir, "reports")
		configPath := filepath.Join(dir, config.ProjectConfigFile)
		content := "[output]\ndirectory = \"" + filepath.ToSlash(reports) + "\"\n"
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		path, err := generateOutputFilePath("structure", "yaml", configPath, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Dir(path) != reports || !strings.HasSuffix(path, ".yaml") {
			t.Errorf("Unexpected path %s", path)
		}
		if _, err := os.Stat(reports); err != nil {
			t.Errorf("directory was not created: %v", err)
		}
	})
}
