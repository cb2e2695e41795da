package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const skillDoc = `---
name: unity-map-builder
description: Build Unity scenes from a JSON map spec.
license: MIT
allowed-tools: Read Write Bash(python3 scripts/build.py:*)
triggers:
  - unity
  - floor plan
---
# Unity map builder

Read the spec, then generate the scene.
`

const agentDoc = `---
name: sql-reviewer
description: Reviews SQL for production risks.
model: sonnet
tools: Read, Grep, Glob
color: blue
---
You review SQL queries.
`
