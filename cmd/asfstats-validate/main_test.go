// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func buildValidateBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "asfstats-validate-test")
	// #nosec G204 -- test code building the binary under test
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build validate binary: %v\n%s", err, out)
	}
	return binaryPath
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestValidateCLI(t *testing.T) {
	binaryPath := buildValidateBinary(t)

	tests := []struct {
		name       string
		config     string                          // YAML content; empty means no -f flag
		setup      func(t *testing.T, dir string)  // populate the data dir
		wantExit   int
		wantOutput string // substring expected in combined output
	}{
		{
			name:       "valid minimal config",
			config:     "listen: \":8080\"\n",
			wantExit:   0,
			wantOutput: "is valid",
		},
		{
			name:   "valid config with alias files",
			config: "listen: \":8080\"\n",
			setup: func(t *testing.T, dir string) {
				writeTestFile(t, filepath.Join(dir, "Spelling.csv"),
					"Real,Aliases\n\"Smith, John\",\"Smith J|Smyth, John\"\n")
			},
			wantExit:   0,
			wantOutput: "spellings: 1 names, 2 aliases",
		},
		{
			name:       "missing alias files reported but valid",
			config:     "listen: \":8080\"\n",
			wantExit:   0,
			wantOutput: "not found",
		},
		{
			name:   "broken alias file",
			config: "listen: \":8080\"\n",
			setup: func(t *testing.T, dir string) {
				writeTestFile(t, filepath.Join(dir, "Spelling.csv"),
					"Real,Aliases\nonly-one-column\n")
			},
			wantExit:   1,
			wantOutput: "Alias file error",
		},
		{
			name:       "unknown key rejected",
			config:     "listen: \":8080\"\nbogusKey: true\n",
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "type mismatch rejected",
			config:     "listen: [1, 2]\n",
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "no file flag provided",
			config:     "",
			wantExit:   2,
			wantOutput: "--file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dataDir)
			}

			var cmd *exec.Cmd
			if tt.config == "" {
				// #nosec G204 -- test code running the binary under test
				cmd = exec.Command(binaryPath)
			} else {
				configPath := filepath.Join(t.TempDir(), "config.yaml")
				writeTestFile(t, configPath, tt.config)
				// #nosec G204 -- test code running the binary under test
				cmd = exec.Command(binaryPath, "-f", configPath)
			}
			cmd.Env = append(os.Environ(), "ASF_DATA_DIR="+dataDir)

			output, err := cmd.CombinedOutput()
			exitCode := 0
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					t.Fatalf("unexpected error running validate: %v", err)
				}
			}

			if exitCode != tt.wantExit {
				t.Errorf("exit code = %d, want %d\nOutput:\n%s", exitCode, tt.wantExit, output)
			}
			if tt.wantOutput != "" && !strings.Contains(string(output), tt.wantOutput) {
				t.Errorf("output does not contain %q\nGot:\n%s", tt.wantOutput, output)
			}
		})
	}
}

func TestValidateCLI_NonExistentFile(t *testing.T) {
	binaryPath := buildValidateBinary(t)

	// #nosec G204 -- test code running the binary under test
	cmd := exec.Command(binaryPath, "-f", "does-not-exist.yaml")
	cmd.Env = append(os.Environ(), "ASF_DATA_DIR="+t.TempDir())
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for missing config file, got success:\n%s", output)
	}
	if !strings.Contains(string(output), "Configuration error") {
		t.Errorf("output does not contain %q\nGot:\n%s", "Configuration error", output)
	}
}

func TestValidateCLI_Version(t *testing.T) {
	binaryPath := buildValidateBinary(t)

	// #nosec G204 -- test code running the binary under test
	cmd := exec.Command(binaryPath, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("unexpected error running validate -version: %v", err)
	}
	if strings.TrimSpace(string(output)) == "" {
		t.Error("version output is empty")
	}
}
