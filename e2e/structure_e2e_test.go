package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestStructureE2EText structures a document and prints the text report
func TestStructureE2EText(t *testing.T) {
	binaryPath := buildFlowstructBinary(t)

	testDir := t.TempDir()
	createTestDocument(t, testDir, "loop.yaml", loopDocument)
	createTestConfigFile(t, testDir, t.TempDir())

	cmd := exec.Command(binaryPath, "structure", "--no-color", "--tokens", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	output := stdout.String()
	if !strings.Contains(output, "demo/Loop.count") {
		t.Error("Output should contain 'demo/Loop.count'")
	}
	if !strings.Contains(output, "while") {
		t.Errorf("Output should contain the recovered while loop:\n%s", output)
	}
}

// TestStructureE2EJSONOutput writes the JSON report into the configured directory
func TestStructureE2EJSONOutput(t *testing.T) {
	binaryPath := buildFlowstructBinary(t)

	testDir := t.TempDir()
	outputDir := t.TempDir()
	createTestDocument(t, testDir, "loop.yaml", loopDocument)
	createTestDocument(t, testDir, "tangle.yaml", tangleDocument)
	createTestConfigFile(t, testDir, outputDir)

	cmd := exec.Command(binaryPath, "structure", "--json", testDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	files, err := filepath.Glob(filepath.Join(outputDir, "structure_*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one JSON report in %s, got %v (%v)", outputDir, files, err)
	}

	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	var report struct {
		Summary struct {
			TotalMethods int `json:"total_methods"`
			Structured   int `json:"structured"`
			Irreducible  int `json:"irreducible"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(content, &report); err != nil {
		t.Fatalf("Invalid JSON report: %v", err)
	}
	if report.Summary.TotalMethods != 2 || report.Summary.Structured != 1 || report.Summary.Irreducible != 1 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}
}

// TestCheckE2EExitCode checks the exit status of the check command
func TestCheckE2EExitCode(t *testing.T) {
	binaryPath := buildFlowstructBinary(t)

	cleanDir := t.TempDir()
	createTestDocument(t, cleanDir, "loop.yaml", loopDocument)
	createTestConfigFile(t, cleanDir, t.TempDir())

	if out, err := exec.Command(binaryPath, "check", cleanDir).CombinedOutput(); err != nil {
		t.Fatalf("check should pass on reducible graphs: %v\n%s", err, out)
	}

	tangledDir := t.TempDir()
	createTestDocument(t, tangledDir, "tangle.yaml", tangleDocument)
	createTestConfigFile(t, tangledDir, t.TempDir())

	out, err := exec.Command(binaryPath, "check", tangledDir).CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("Expected exit code 1, got %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "demo/Tangle.twoEntries") {
		t.Errorf("Output should name the irreducible method:\n%s", out)
	}
}

// TestInitE2E generates a configuration file that later runs pick up
func TestInitE2E(t *testing.T) {
	binaryPath := buildFlowstructBinary(t)

	testDir := t.TempDir()
	cmd := exec.Command(binaryPath, "init")
	cmd.Dir = testDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("init failed: %v\n%s", err, out)
	}

	if _, err := os.Stat(filepath.Join(testDir, ".flowstruct.toml")); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	createTestDocument(t, testDir, "loop.yaml", loopDocument)
	run := exec.Command(binaryPath, "structure", "--no-cache", ".")
	run.Dir = testDir
	if out, err := run.CombinedOutput(); err != nil {
		t.Fatalf("structure with generated config failed: %v\n%s", err, out)
	}
}
