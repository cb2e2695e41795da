// Package git wraps the git commands plugkit needs to inspect a working tree.
package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotRepository is returned when a directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// ValidateRepo checks that repoPath is the top of a git work tree by
// verifying the existence of a .git entry. Worktrees and submodules use a
// .git file, which is accepted.
func ValidateRepo(repoPath string) error {
	gitDir := filepath.Join(repoPath, ".git")
	if _, err := os.Stat(gitDir); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotRepository, "%s", repoPath)
		}
		return errors.Wrap(err, "checking git directory")
	}
	return nil
}

// ChangedFiles lists files in repoPath that differ from HEAD, staged or not,
// as slash-separated paths relative to the repository root.
func ChangedFiles(ctx context.Context, repoPath string) ([]string, error) {
	out, err := output(ctx, repoPath, "diff", "--name-only", "HEAD")
	if err != nil {
		return nil, errors.Wrap(err, "git diff failed")
	}
	return splitLines(out), nil
}

// Untracked lists files in repoPath that git does not track and does not
// ignore.
func Untracked(ctx context.Context, repoPath string) ([]string, error) {
	out, err := output(ctx, repoPath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, errors.Wrap(err, "git ls-files failed")
	}
	return splitLines(out), nil
}

func output(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoPath}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Wrap(err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

func splitLines(s string) []string {
	var lines []string
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
