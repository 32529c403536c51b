package acceptance_test

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

// runValidator executes the gts-validator binary and returns stdout, stderr, and exit code.
func runValidator(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(validatorBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(cleanEnv(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run gts-validator: %v", err)
		}
	}
	return stdout.String(), stderr.String(), exitCode
}

// cleanEnv returns the process environment without GTS_VALIDATOR_ variables.
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "GTS_VALIDATOR_") {
			env = append(env, kv)
		}
	}
	return env
}

// runExpecting runs gts-validator expecting the given exit code and returns stdout.
func runExpecting(t *testing.T, wantCode int, dir string, args ...string) string {
	t.Helper()
	stdout, stderr, exitCode := runValidator(t, dir, args...)
	if exitCode != wantCode {
		t.Fatalf("expected exit %d, got %d\nargs: %v\nstdout: %s\nstderr: %s", wantCode, exitCode, args, stdout, stderr)
	}
	return stdout
}

// jsonReport is the subset of the --json report the scenarios inspect.
type jsonReport struct {
	ScannedFiles  int  `json:"scanned_files"`
	OK            bool `json:"ok"`
	ErrorsCount   int  `json:"errors_count"`
	WarningsCount int  `json:"warnings_count"`
	Findings      []struct {
		File       string `json:"file"`
		Line       int    `json:"line"`
		Column     int    `json:"column"`
		Severity   string `json:"severity"`
		Reason     string `json:"reason"`
		Identifier string `json:"identifier"`
	} `json:"findings"`
}

// runJSON runs gts-validator --json expecting wantCode and parses the report.
func runJSON(t *testing.T, wantCode int, dir string, args ...string) jsonReport {
	t.Helper()
	stdout := runExpecting(t, wantCode, dir, append([]string{"--json"}, args...)...)
	var report jsonReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON report: %v\noutput: %s", err, stdout)
	}
	return report
}

// writeFile creates a file with the given content.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// readFile reads a file's content.
func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	return string(content)
}

// snapshotFiles returns a map of relative path to content for every file under dir.
func snapshotFiles(t *testing.T, dir string) map[string]string {
	t.Helper()
	snap := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		snap[rel] = readFile(t, dir, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to snapshot %s: %v", dir, err)
	}
	return snap
}
