package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/internal/dbscan"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// run executes cmd with args and resets the shared flag state afterwards.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Setenv(dsnEnv, os.Getenv(dsnEnv))

	noColor := color.NoColor
	color.NoColor = true

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(logging.NewContext(context.Background(), logging.ForTest(t)))
	t.Cleanup(func() {
		color.NoColor = noColor
		cmd.SetOut(nil)
		outputJSON = false
		failOn = "high"
		dsnFlag = ""
		queriesLimit = 50
		inspectSample = 0
		explainMax = 0
		explainSlow = 0
	})

	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func sqliteFile(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

const injectable = "def find(cur, name):\n    cur.execute(\"SELECT * FROM users WHERE name = '\" + name + \"'\")\n"

func TestQueries_Text(t *testing.T) {
	root := project(t, map[string]string{"app/users.py": injectable})

	out, err := run(t, queriesCmd, root)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed), "err = %v", err)
	assert.Contains(t, out, "1 injection risks")
	assert.Contains(t, out, "app/users.py:2")
	assert.Contains(t, out, "HIGH app/users.py:2 [sql_injection_risk]")
	assert.Contains(t, out, "Fix: ")
}

func TestQueries_Limit(t *testing.T) {
	root := project(t, map[string]string{
		"a.py": "A = \"SELECT id FROM a WHERE x = 1\"\nB = \"SELECT id FROM b WHERE x = 1\"\nC = \"SELECT id FROM c WHERE x = 1\"\n",
	})
	queriesLimit = 2

	out, err := run(t, queriesCmd, root)
	require.NoError(t, err)
	assert.Contains(t, out, "1 more")
	assert.Contains(t, out, "No problems found.")
}

func TestQueries_JSON(t *testing.T) {
	root := project(t, map[string]string{"store.go": "package store\n\nconst q = \"SELECT id FROM users WHERE id = $1\"\n"})
	outputJSON = true

	out, err := run(t, queriesCmd, root)
	require.NoError(t, err)

	var rep dbscan.QueryReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Queries, 1)
	assert.Equal(t, []string{"users"}, rep.Queries[0].Tables)
	assert.Equal(t, 1, rep.Summary.RawSQL)
}

func TestNPlusOne(t *testing.T) {
	root := project(t, map[string]string{
		"jobs.js": "for (const id of ids) {\n  const row = await db.query('SELECT 1');\n}\n",
	})

	tests := []struct {
		name    string
		failOn  string
		wantErr bool
	}{
		{"fails at high", "high", true},
		{"passes at critical", "critical", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failOn = tt.failOn
			out, err := run(t, nplusoneCmd, root)
			assert.Contains(t, out, "jobs.js:1 [n_plus_one]")
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrValidationFailed))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNPlusOne_BadFailOn(t *testing.T) {
	failOn = "severe"
	_, err := run(t, nplusoneCmd, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
	assert.Contains(t, err.Error(), `unknown severity "severe"`)
}

func TestSchema(t *testing.T) {
	root := project(t, map[string]string{
		"db/001.sql": "CREATE TABLE events (name TEXT, at TIMESTAMP, payload TEXT);\nCREATE TABLE users (id INT PRIMARY KEY);\n",
	})

	out, err := run(t, schemaCmd, root)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))
	assert.Contains(t, out, "events")
	assert.Contains(t, out, "db/001.sql:1")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "CRITICAL db/001.sql:1 [missing_primary_key]")
	assert.Contains(t, out, "1 critical, 1 medium")
}

func TestInspect_RequiresDSN(t *testing.T) {
	t.Setenv(dsnEnv, "")
	_, err := run(t, inspectCmd)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "no database DSN")
}

func TestInspect_SQLite(t *testing.T) {
	path := sqliteFile(t,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)`,
		`INSERT INTO users (email) VALUES ('a@example.com')`,
	)
	dsnFlag = path

	out, err := run(t, inspectCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite "+path)
	assert.Contains(t, out, "ROWS")
	assert.Contains(t, out, "No problems found.")
}

func TestInspect_RedisFromEnv(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("session:1", "x"))
	require.NoError(t, mr.Set("session:2", "y"))
	t.Setenv(dsnEnv, "redis://"+mr.Addr())

	out, err := run(t, inspectCmd)
	require.NoError(t, err, "low findings stay under the default --fail-on")
	assert.Contains(t, out, "2 keys")
	assert.Contains(t, out, "sampled 2, 2 without TTL")
	assert.Contains(t, out, "session")
	assert.Contains(t, out, "[keys_without_ttl]")
}

func TestInspect_Unreachable(t *testing.T) {
	dsnFlag = "redis://127.0.0.1:1"
	_, err := run(t, inspectCmd)
	require.Error(t, err)
	assert.Equal(t, errors.ExitSystem, errors.ExitCode(err))
}

func TestExplain(t *testing.T) {
	db := sqliteFile(t, `CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT)`)
	root := project(t, map[string]string{
		"report.py": "OPEN = \"SELECT id FROM orders WHERE status = 'open'\"\nONE = \"SELECT id FROM orders WHERE id = ?\"\n",
	})
	dsnFlag = db

	out, err := run(t, explainCmd, root)
	require.NoError(t, err, "seq scans are medium")
	assert.Contains(t, out, "report.py:1")
	assert.Contains(t, out, "SCAN orders")
	assert.Contains(t, out, "1 statements skipped")
	assert.Contains(t, out, "MEDIUM report.py:1 [seq_scan]")
}

func TestExplain_JSON(t *testing.T) {
	db := sqliteFile(t, `CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT)`)
	root := project(t, map[string]string{
		"report.py": "OPEN = \"SELECT id FROM orders WHERE status = 'open'\"\nALL = \"SELECT id FROM orders WHERE id > 0\"\n",
	})
	dsnFlag = db
	outputJSON = true
	explainMax = 1

	out, err := run(t, explainCmd, root)
	require.NoError(t, err)

	var rep dbscan.ExplainReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Plans, 2)
	assert.Equal(t, "over the limit of 1", rep.Plans[1].Skipped)
}

func TestCompare(t *testing.T) {
	db := sqliteFile(t, `CREATE TABLE users (id INTEGER PRIMARY KEY)`)
	root := project(t, map[string]string{
		"migrations/001.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT);\n",
	})
	dsnFlag = "sqlite:" + db

	out, err := run(t, compareCmd, root)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))
	assert.Contains(t, out, "1 tables in code, 1 in sqlite:"+db)
	assert.Contains(t, out, "[missing_column_in_db]")
}

func TestAnalyze_JSON(t *testing.T) {
	root := project(t, map[string]string{"app/users.py": injectable})
	t.Setenv(dsnEnv, "")
	outputJSON = true

	out, err := run(t, analyzeCmd, root)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))

	var a dbscan.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Nil(t, a.Live)
	require.Len(t, a.Findings, 1)
	assert.Equal(t, "sql_injection_risk", a.Findings[0].Kind)
	assert.Equal(t, dbscan.SeverityHigh, a.Findings[0].Severity)
}

func TestAnalyze_Text(t *testing.T) {
	db := sqliteFile(t, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	root := project(t, map[string]string{"app/users.py": injectable})
	dsnFlag = db
	failOn = "critical"

	out, err := run(t, analyzeCmd, root)
	require.NoError(t, err)
	assert.Contains(t, out, "Queries:  ")
	assert.Contains(t, out, "Database: sqlite "+db)
}

func TestVerdict(t *testing.T) {
	findings := []dbscan.Finding{{Severity: dbscan.SeverityMedium}, {Severity: dbscan.SeverityLow}}
	t.Cleanup(func() { failOn = "high" })

	tests := []struct {
		failOn string
		fail   bool
	}{
		{"critical", false},
		{"high", false},
		{"MEDIUM", true},
		{"low", true},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			failOn = tt.failOn
			err := verdict(findings)
			assert.Equal(t, tt.fail, errors.Is(err, errors.ErrValidationFailed))
		})
	}

	failOn = "low"
	assert.NoError(t, verdict(nil))
}
