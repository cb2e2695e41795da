package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// doctorEnv builds a project with the given settings.json, a HOME without
// user settings, and a PATH holding stub executables for every tool.
func doctorEnv(t *testing.T, settingsJSON string) {
	t.Helper()
	loadTestConfig(t, "version: 1\nlint:\n  security: true\n")

	bin := t.TempDir()
	for _, tool := range []string{"git", "ruff", "bandit", "rustfmt", "cargo", "eslint"} {
		if err := os.WriteFile(filepath.Join(bin, tool), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", bin)
	t.Setenv("HOME", t.TempDir())

	project := t.TempDir()
	if err := os.MkdirAll(filepath.Join(project, ".claude", "skills"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".claude", "settings.json"), []byte(settingsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(project)

	doctorJSON, doctorQuiet, doctorVerbose, doctorBinary = false, false, false, "plugkit"
	t.Cleanup(func() {
		doctorJSON, doctorQuiet, doctorVerbose, doctorBinary = false, false, false, "plugkit"
	})
}

func runDoctorCmd(t *testing.T) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	doctorCmd.SetOut(&buf)
	doctorCmd.SetContext(logging.NewContext(context.Background(), logging.ForTest(t)))
	t.Cleanup(func() { doctorCmd.SetOut(nil) })
	err := runDoctor(doctorCmd, nil)
	return buf.String(), err
}

const installedSettings = `{"hooks":{
  "PreToolUse":[{"matcher":"Edit|MultiEdit|Write","hooks":[{"type":"command","command":"plugkit hook guard"}]}],
  "PostToolUse":[{"matcher":"Edit|MultiEdit|Write","hooks":[{"type":"command","command":"plugkit hook lint"}]}],
  "UserPromptSubmit":[{"hooks":[{"type":"command","command":"plugkit hook suggest"}]}]
}}`

func TestDoctor_Healthy(t *testing.T) {
	doctorEnv(t, installedSettings)
	doctorVerbose = true

	out, err := runDoctorCmd(t)
	if err != nil {
		t.Fatalf("runDoctor() error = %v\n%s", err, out)
	}
	for _, want := range []string{
		"✓ [tools] tools: all 6 tools found on PATH",
		"✓ [settings] project-settings: all 3 hooks installed",
		"ℹ [settings] user-settings:",
		"Summary: 4 passed, 1 info, 0 warnings, 0 errors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_BrokenSettings(t *testing.T) {
	doctorEnv(t, "{\"hooks\": }")

	out, err := runDoctorCmd(t)
	if got := errors.ExitCode(err); got != errors.ExitSystem {
		t.Fatalf("exit code = %d, want %d (err %v)", got, errors.ExitSystem, err)
	}
	if !strings.Contains(out, "✗ [settings] project-settings: JSON syntax error at line 1") {
		t.Errorf("output missing syntax error:\n%s", out)
	}
	if !strings.Contains(out, "hint: Fix the syntax") {
		t.Errorf("output missing hint:\n%s", out)
	}
	if strings.Contains(out, "[tools]") {
		t.Errorf("passing checks shown without --verbose:\n%s", out)
	}
}

func TestDoctor_MissingToolsWarn(t *testing.T) {
	doctorEnv(t, installedSettings)
	t.Setenv("PATH", t.TempDir())
	doctorJSON = true

	out, err := runDoctorCmd(t)
	if got := errors.ExitCode(err); got != errors.ExitUser {
		t.Fatalf("exit code = %d, want %d", got, errors.ExitUser)
	}

	var report struct {
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
		Summary struct {
			Warnings int `json:"warnings"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Summary.Warnings != 1 {
		t.Errorf("warnings = %d, want 1", report.Summary.Warnings)
	}
	for _, r := range report.Results {
		if r.Name == "tools" && r.Status != "warning" {
			t.Errorf("tools status = %q, want warning", r.Status)
		}
	}
}

func TestDoctor_ExclusiveFlags(t *testing.T) {
	doctorJSON, doctorQuiet = true, true
	t.Cleanup(func() { doctorJSON, doctorQuiet = false, false })

	if err := validateDoctorFlags(doctorCmd, nil); err == nil {
		t.Error("expected error for --json with --quiet")
	}
}
