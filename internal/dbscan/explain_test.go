package dbscan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/internal/errors"
)

func rawQuery(file string, line int, text string) Query {
	return Query{Type: QueryTypeRaw, Category: CategorySQL, File: file, Line: line, Text: text}
}

func TestExplainable(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"plain select", rawQuery("a.py", 1, "SELECT * FROM users WHERE active = true"), ""},
		{"cte", rawQuery("a.py", 1, "WITH recent AS (SELECT id FROM orders) SELECT * FROM recent"), ""},
		{"postgres cast", rawQuery("a.py", 1, "SELECT created_at::date FROM orders"), ""},
		{"orm call", Query{Type: "django", Text: "User.objects.filter("}, "not raw SQL"},
		{"update", rawQuery("a.py", 1, "UPDATE users SET active = false"), "not a SELECT"},
		{"dollar parameter", rawQuery("a.go", 1, "SELECT * FROM users WHERE id = $1"), "has parameters"},
		{"question mark", rawQuery("a.js", 1, "SELECT * FROM users WHERE id = ?"), "has parameters"},
		{"named parameter", rawQuery("a.py", 1, "SELECT * FROM users WHERE id = :uid"), "has parameters"},
		{"format verb", rawQuery("a.go", 1, "SELECT * FROM users WHERE name = '%s'"), "has parameters"},
		{"python hole", rawQuery("a.py", 1, "SELECT * FROM users WHERE id = {uid}"), "has parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, explainable(tt.q))
		})
	}
}

func TestSelectPlans_Limit(t *testing.T) {
	queries := []Query{
		rawQuery("a.py", 1, "SELECT 1 FROM a"),
		rawQuery("a.py", 2, "DELETE FROM a"),
		rawQuery("a.py", 3, "SELECT 1 FROM b"),
		rawQuery("a.py", 4, "SELECT 1 FROM c"),
	}

	plans := selectPlans(queries, 2)
	require.Len(t, plans, 4)
	assert.Empty(t, plans[0].Skipped)
	assert.Equal(t, "not a SELECT", plans[1].Skipped)
	assert.Empty(t, plans[2].Skipped)
	assert.Equal(t, "over the limit of 2", plans[3].Skipped)
}

func TestSqliteFullScan(t *testing.T) {
	tests := []struct {
		detail string
		table  string
		ok     bool
	}{
		{"SCAN users", "users", true},
		{"SCAN TABLE users", "users", true},
		{"SCAN users USING COVERING INDEX idx_users_email", "", false},
		{"SEARCH users USING INDEX idx_users_email (email=?)", "", false},
		{"SCAN CONSTANT ROW", "", false},
		{"USE TEMP B-TREE FOR ORDER BY", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			table, ok := sqliteFullScan(tt.detail)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.table, table)
		})
	}
}

const ordersPlan = `[{"Plan": {"Node Type": "Hash Join", "Plans": [
  {"Node Type": "Seq Scan", "Relation Name": "orders"},
  {"Node Type": "Index Scan", "Relation Name": "users", "Index Name": "users_pkey"}
]}, "Execution Time": 250.5}]`

func TestExplainPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`EXPLAIN \(ANALYZE, BUFFERS, FORMAT JSON\) SELECT \* FROM orders JOIN users`).
		WillReturnRows(sqlmock.NewRows([]string{"QUERY PLAN"}).AddRow(ordersPlan))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`EXPLAIN .* FROM missing`).
		WillReturnError(errors.New(`relation "missing" does not exist`))
	mock.ExpectRollback()

	queries := []Query{
		rawQuery("api/orders.py", 12, "SELECT * FROM orders JOIN users ON users.id = orders.user_id;"),
		rawQuery("api/orders.py", 30, "SELECT * FROM orders WHERE id = $1"),
		rawQuery("api/stale.py", 4, "SELECT * FROM missing"),
	}
	opts := ExplainOptions{SlowQuery: 100 * time.Millisecond, Max: 10}

	plans := ExplainPostgres(testContext(t), db, queries, opts)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, plans, 3)

	assert.InDelta(t, 250.5, plans[0].Millis, 0.001)
	assert.Equal(t, []string{"Hash Join", "  Seq Scan on orders", "  Index Scan on users using users_pkey"}, plans[0].Steps)
	assert.Equal(t, []string{"orders"}, plans[0].SeqScans)
	assert.Equal(t, "has parameters", plans[1].Skipped)
	assert.Contains(t, plans[2].Error, "does not exist")

	findings := planFindings(plans, opts)
	assert.Equal(t, []findingKey{
		{SeverityHigh, KindSlowQuery, "", ""},
		{SeverityMedium, KindSeqScan, "orders", ""},
	}, keys(findings))
	assert.Equal(t, "api/orders.py:12", findings[0].Location())
	assert.Contains(t, findings[0].Message, "250.5ms")
}

func TestExplain_SQLite(t *testing.T) {
	path := createSQLite(t,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, name TEXT)`,
		`CREATE INDEX idx_users_email ON users (email)`,
		`INSERT INTO users (email, name) VALUES ('a@example.com', 'A')`,
	)
	queries := []Query{
		rawQuery("app.py", 3, "SELECT id FROM users WHERE name = 'A'"),
		rawQuery("app.py", 9, "SELECT id FROM users WHERE email = 'a@example.com'"),
		rawQuery("app.py", 15, "SELECT id FROM nowhere"),
	}

	report, err := Explain(testContext(t), path, queries, ExplainOptions{SlowQuery: time.Hour, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, report.Driver)
	require.Len(t, report.Plans, 3)

	assert.Equal(t, []string{"users"}, report.Plans[0].SeqScans)
	assert.Empty(t, report.Plans[1].SeqScans)
	assert.NotEmpty(t, report.Plans[1].Steps)
	assert.Contains(t, report.Plans[2].Error, "no such table")

	assert.Equal(t, []findingKey{{SeverityMedium, KindSeqScan, "users", ""}}, keys(report.Findings))
	assert.Equal(t, "app.py:3", report.Findings[0].Location())
}

func TestExplain_RejectsRedis(t *testing.T) {
	_, err := Explain(testContext(t), "redis://localhost:6379", nil, ExplainOptions{Max: 1})
	assert.True(t, errors.Is(err, ErrUnsupportedDatabase))
}

func TestLoadQueries(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.py": "cur.execute(\"SELECT id FROM users WHERE active = 1\")\n",
	})

	t.Run("directory", func(t *testing.T) {
		qs, err := LoadQueries(testContext(t), root)
		require.NoError(t, err)
		require.Len(t, rawQueries(qs), 1)
		assert.Equal(t, "src/app.py", qs[0].File)
	})

	t.Run("saved report", func(t *testing.T) {
		report := QueryReport{Root: "elsewhere", Queries: []Query{rawQuery("x.go", 7, "SELECT 1 FROM t")}}
		data, err := json.Marshal(report)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "queries.json")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		qs, err := LoadQueries(testContext(t), path)
		require.NoError(t, err)
		assert.Equal(t, report.Queries, qs)
	})

	t.Run("malformed report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "queries.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

		_, err := LoadQueries(testContext(t), path)
		require.Error(t, err)
		assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
	})
}
