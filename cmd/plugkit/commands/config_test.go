package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
)

// loadTestConfig writes content to a temp config file and loads it the way
// the root command does.
func loadTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	config.Init()
	flags.SetConfig(config.Load(path))
	t.Cleanup(func() {
		config.Init()
		flags.SetConfig(nil, nil)
	})
	return path
}

func TestConfigShow(t *testing.T) {
	loadTestConfig(t, "version: 1\nlint:\n  timeout: 45s\nsuggest:\n  limit: 2\n")

	var buf bytes.Buffer
	configShowCmd.SetOut(&buf)
	t.Cleanup(func() { configShowCmd.SetOut(nil) })

	if err := runConfigShow(configShowCmd, nil); err != nil {
		t.Fatalf("runConfigShow() error = %v", err)
	}

	var got config.Config
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if got.Lint.Timeout != 45*time.Second {
		t.Errorf("lint.timeout = %v, want 45s", got.Lint.Timeout)
	}
	if got.Suggest.Limit != 2 {
		t.Errorf("suggest.limit = %d, want 2", got.Suggest.Limit)
	}
}

func TestConfigShow_BrokenFile(t *testing.T) {
	loadTestConfig(t, "lint: [unclosed\n")

	err := runConfigShow(configShowCmd, nil)
	if err == nil {
		t.Fatal("expected error for broken config")
	}
	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if !strings.Contains(exitErr.Suggestion, "plugkit config show") {
		t.Errorf("Suggestion = %q", exitErr.Suggestion)
	}
}

func TestConfigPath(t *testing.T) {
	path := loadTestConfig(t, "version: 1\n")

	var buf bytes.Buffer
	configPathCmd.SetOut(&buf)
	t.Cleanup(func() { configPathCmd.SetOut(nil) })

	if err := runConfigPath(configPathCmd, nil); err != nil {
		t.Fatalf("runConfigPath() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != path {
		t.Errorf("config path = %q, want %q", got, path)
	}
}
