package dbscan

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func rawQueries(qs []Query) []Query {
	var out []Query
	for _, q := range qs {
		if q.Type == QueryTypeRaw {
			out = append(out, q)
		}
	}
	return out
}

func TestFindInSource_RawSQL(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		source     string
		wantText   string
		wantTables []string
		wantLine   int
		wantRisk   bool
	}{
		{
			name:       "python f-string",
			file:       "app/repo.py",
			source:     "def get(cur, uid):\n    cur.execute(f\"SELECT * FROM users WHERE id = {uid}\")\n",
			wantText:   "SELECT * FROM users WHERE id = {uid}",
			wantTables: []string{"users"},
			wantLine:   2,
			wantRisk:   true,
		},
		{
			name:       "template literal",
			file:       "src/orders.ts",
			source:     "const q = `SELECT id FROM orders WHERE user_id = ${id}`;\n",
			wantText:   "SELECT id FROM orders WHERE user_id = ${id}",
			wantTables: []string{"orders"},
			wantLine:   1,
			wantRisk:   true,
		},
		{
			name:       "concatenation",
			file:       "src/accounts.js",
			source:     "const q = \"SELECT * FROM accounts WHERE name = '\" + name + \"'\";\n",
			wantText:   "SELECT * FROM accounts WHERE name = '",
			wantTables: []string{"accounts"},
			wantLine:   1,
			wantRisk:   true,
		},
		{
			name:       "sprintf verb",
			file:       "store/session.go",
			source:     "package store\n\nvar q = fmt.Sprintf(\"DELETE FROM sessions WHERE owner = '%s'\", u)\n",
			wantText:   "DELETE FROM sessions WHERE owner = '%s'",
			wantTables: []string{"sessions"},
			wantLine:   3,
			wantRisk:   true,
		},
		{
			name:       "bind parameter",
			file:       "store/user.go",
			source:     "package store\n\nfunc f() { db.QueryContext(ctx, \"SELECT id, email FROM users WHERE id = $1\", id) }\n",
			wantText:   "SELECT id, email FROM users WHERE id = $1",
			wantTables: []string{"users"},
			wantLine:   3,
		},
		{
			name:       "triple quoted join",
			file:       "reports.py",
			source:     "SQL = \"\"\"\n    SELECT u.id, o.total\n    FROM public.users u\n    JOIN orders o ON o.user_id = u.id\n\"\"\"\n",
			wantText:   "SELECT u.id, o.total FROM public.users u JOIN orders o ON o.user_id = u.id",
			wantTables: []string{"users", "orders"},
			wantLine:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawQueries(findInSource(tt.file, tt.source))
			require.Len(t, raw, 1)
			q := raw[0]
			assert.Equal(t, tt.wantText, q.Text)
			assert.Equal(t, tt.wantTables, q.Tables)
			assert.Equal(t, tt.wantLine, q.Line)
			assert.Equal(t, tt.wantRisk, q.InjectionRisk)
			assert.Equal(t, CategorySQL, q.Category)
		})
	}
}

func TestFindInSource_IgnoresOrdinaryStrings(t *testing.T) {
	src := "msg = \"hello world, nothing to see\"\nname = 'users'\nsql = \"SELECT 1\"\n"
	assert.Empty(t, rawQueries(findInSource("app.py", src)))
}

func TestFindQueries_ORM(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/models.py":          "active = User.objects.filter(active=True)\nrows = session.query(User).all()\n",
		"web/api.ts":             "const users = await prisma.user.findMany({ where: {} });\n",
		"cache/cache.go":         "package cache\n\nfunc put() { rdb.Set(ctx, key, v, 0) }\n",
		"node_modules/lib/db.js": "const q = `SELECT * FROM vendored WHERE id = ${id}`;\n",
		"README.md":              "SELECT * FROM docs_only\n",
	})

	report, err := FindQueries(context.Background(), root)
	require.NoError(t, err)

	types := make(map[string]string)
	for _, q := range report.Queries {
		types[q.Type] = q.File
	}
	assert.Equal(t, map[string]string{
		"django":     "app/models.py",
		"sqlalchemy": "app/models.py",
		"prisma":     "web/api.ts",
		"redis":      "cache/cache.go",
	}, types)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 4, report.Summary.ORM)
	assert.Equal(t, 0, report.Summary.RawSQL)
	assert.Equal(t, map[Category]int{CategorySQL: 3, CategoryNoSQL: 1}, report.Summary.ByCategory)
	assert.Equal(t, FileCount{File: "app/models.py", Count: 2}, report.Summary.TopFiles[0])
	assert.Empty(t, report.Findings())
}

func TestFindQueries_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"handler.js": "db.query(\"SELECT * FROM carts WHERE id = \" + id);\n",
	})

	report, err := FindQueries(context.Background(), filepath.Join(root, "handler.js"))
	require.NoError(t, err)
	require.Len(t, rawQueries(report.Queries), 1)
	assert.Equal(t, "handler.js", report.Queries[0].File)

	findings := report.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityHigh, findings[0].Severity)
	assert.Equal(t, "sql_injection_risk", findings[0].Kind)
	assert.Equal(t, "handler.js:1", findings[0].Location())
}

func TestSummarize_TopFiles(t *testing.T) {
	var queries []Query
	for i := range 12 {
		for range i + 1 {
			queries = append(queries, Query{Type: QueryTypeRaw, Category: CategorySQL, File: "f" + strconv.Itoa(i) + ".py"})
		}
	}

	s := summarize(queries)
	require.Len(t, s.TopFiles, topFiles)
	assert.Equal(t, FileCount{File: "f11.py", Count: 12}, s.TopFiles[0])
	assert.Equal(t, FileCount{File: "f2.py", Count: 3}, s.TopFiles[topFiles-1])
	assert.Equal(t, 78, s.RawSQL)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "SELEC...", Truncate("SELECT * FROM t", 8))
	assert.Equal(t, "데이...", Truncate("데이터베이스", 5))
}
