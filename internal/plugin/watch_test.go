package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thoreinstein/plugkit/internal/logging"
)

func TestWatcher_ReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := buildPluginTree(t)
	w := NewWatcher(logging.ForTest(t))
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, []string{root}, func(paths []string) { changes <- paths })
	}()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(root, "agents", "sql-reviewer.md")
	require.NoError(t, os.WriteFile(target, []byte(agentDoc+"\nMore.\n"), 0o644))

	newDir := filepath.Join(root, "skills", "fresh")
	require.NoError(t, os.MkdirAll(newDir, 0o755))

	select {
	case paths := <-changes:
		assert.Contains(t, paths, target)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	err := NewWatcher(nil).Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, func([]string) {})
	require.Error(t, err)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "a/SKILL.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a/SKILL.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "a/.SKILL.md.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "a/SKILL.md~", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "a/b.md", Op: fsnotify.Write | fsnotify.Chmod}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.event), tt.event.String())
	}
}
