package dbscan

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// Explain finding kinds.
const (
	KindSeqScan   = "seq_scan"
	KindSlowQuery = "slow_query"
)

// ExplainOptions tunes Explain.
type ExplainOptions struct {
	// SlowQuery is the execution time above which a query is reported.
	SlowQuery time.Duration
	// Max caps the statements sent to the planner.
	Max int
}

// Plan is the planner's view of one statement.
type Plan struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Query string `json:"query"`
	// Skipped explains why the statement was not run.
	Skipped  string   `json:"skipped,omitempty"`
	Error    string   `json:"error,omitempty"`
	Millis   float64  `json:"execution_ms,omitempty"`
	Steps    []string `json:"steps,omitempty"`
	SeqScans []string `json:"seq_scans,omitempty"`
}

// ExplainReport is the result of Explain.
type ExplainReport struct {
	Driver   Driver    `json:"driver"`
	Database string    `json:"database"`
	Plans    []Plan    `json:"plans"`
	Findings []Finding `json:"findings"`
}

// placeholderRe matches bind parameters and template holes that make a
// statement unrunnable as written.
var placeholderRe = regexp.MustCompile(`\$\d+|\?|%[sdvq]|\$\{|\{\w*\}|(^|[^:]):[a-zA-Z_]\w*`)

// explainable returns the reason q cannot be explained, or "".
func explainable(q Query) string {
	if q.Type != QueryTypeRaw {
		return "not raw SQL"
	}
	upper := strings.ToUpper(strings.TrimSpace(q.Text))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "not a SELECT"
	}
	if placeholderRe.MatchString(q.Text) {
		return "has parameters"
	}
	return ""
}

// LoadQueries returns the queries in a saved `db queries --json` report, or
// scans path for them.
func LoadQueries(ctx context.Context, path string) ([]Query, error) {
	if strings.HasSuffix(path, ".json") {
		data, err := fileutil.ReadFileWithLimit(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		var report QueryReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, errors.NewUserError(errors.Wrapf(err, "parsing %s", path),
				"Pass a directory or the output of: plugkit db queries --json")
		}
		return report.Queries, nil
	}
	report, err := FindQueries(ctx, path)
	if err != nil {
		return nil, err
	}
	return report.Queries, nil
}

// Explain runs the plain SELECT statements among queries through the
// planner of the database at dsn.
func Explain(ctx context.Context, dsn string, queries []Query, opts ExplainOptions) (*ExplainReport, error) {
	driver, err := Detect(dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverRedis {
		return nil, errors.NewUserError(errors.Wrap(ErrUnsupportedDatabase, "redis has no query planner"),
			"Use a postgres:// or sqlite: DSN")
	}
	db, err := OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	report := &ExplainReport{Driver: driver, Database: Redact(dsn)}
	if driver == DriverPostgres {
		report.Plans = ExplainPostgres(ctx, db, queries, opts)
	} else {
		report.Plans = ExplainSQLite(ctx, db, queries, opts)
	}
	report.Findings = planFindings(report.Plans, opts)
	return report, nil
}

// selectPlans prepares one Plan per query, marking those that will not be
// run.
func selectPlans(queries []Query, limit int) []Plan {
	plans := make([]Plan, 0, len(queries))
	run := 0
	for _, q := range queries {
		p := Plan{File: q.File, Line: q.Line, Query: q.Text}
		switch reason := explainable(q); {
		case reason != "":
			p.Skipped = reason
		case run >= limit:
			p.Skipped = "over the limit of " + strconv.Itoa(limit)
		default:
			run++
		}
		plans = append(plans, p)
	}
	return plans
}

// pgPlanNode is the subset of EXPLAIN (FORMAT JSON) output used here.
type pgPlanNode struct {
	NodeType  string       `json:"Node Type"`
	Relation  string       `json:"Relation Name"`
	IndexName string       `json:"Index Name"`
	Plans     []pgPlanNode `json:"Plans"`
}

type pgExplain struct {
	Plan          pgPlanNode `json:"Plan"`
	ExecutionTime float64    `json:"Execution Time"`
}

// ExplainPostgres runs EXPLAIN ANALYZE for each query in its own READ ONLY
// transaction, rolled back afterwards.
func ExplainPostgres(ctx context.Context, db *sql.DB, queries []Query, opts ExplainOptions) []Plan {
	logger := logging.FromContext(ctx)
	plans := selectPlans(queries, opts.Max)
	for i := range plans {
		p := &plans[i]
		if p.Skipped != "" {
			continue
		}
		raw, err := explainPostgres(ctx, db, p.Query)
		if err != nil {
			logger.Debug("explain failed", "file", p.File, "line", p.Line, "error", err)
			p.Error = err.Error()
			continue
		}

		var out []pgExplain
		if err := json.Unmarshal(raw, &out); err != nil || len(out) == 0 {
			p.Error = "unreadable plan"
			continue
		}
		p.Millis = out[0].ExecutionTime
		walkPlan(out[0].Plan, 0, p)
	}
	return plans
}

func explainPostgres(ctx context.Context, db *sql.DB, query string) ([]byte, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	var raw []byte
	err = tx.QueryRowContext(ctx, "EXPLAIN (ANALYZE, BUFFERS, FORMAT JSON) "+strings.TrimRight(query, "; \n")).Scan(&raw)
	return raw, err
}

func walkPlan(n pgPlanNode, depth int, p *Plan) {
	step := strings.Repeat("  ", depth) + n.NodeType
	if n.Relation != "" {
		step += " on " + n.Relation
	}
	if n.IndexName != "" {
		step += " using " + n.IndexName
	}
	p.Steps = append(p.Steps, step)
	if n.NodeType == "Seq Scan" && n.Relation != "" {
		p.SeqScans = append(p.SeqScans, n.Relation)
	}
	for _, child := range n.Plans {
		walkPlan(child, depth+1, p)
	}
}

// ExplainSQLite reads EXPLAIN QUERY PLAN for each query, then runs the query
// to time it.
func ExplainSQLite(ctx context.Context, db *sql.DB, queries []Query, opts ExplainOptions) []Plan {
	logger := logging.FromContext(ctx)
	plans := selectPlans(queries, opts.Max)
	for i := range plans {
		p := &plans[i]
		if p.Skipped != "" {
			continue
		}
		query := strings.TrimRight(p.Query, "; \n")
		rows, err := queryMaps(ctx, db, "EXPLAIN QUERY PLAN "+query)
		if err != nil {
			logger.Debug("explain failed", "file", p.File, "line", p.Line, "error", err)
			p.Error = err.Error()
			continue
		}
		for _, r := range rows {
			detail := asString(r["detail"])
			p.Steps = append(p.Steps, detail)
			if table, ok := sqliteFullScan(detail); ok {
				p.SeqScans = append(p.SeqScans, table)
			}
		}

		start := time.Now()
		if err := queryRows(ctx, db, query, func(*sql.Rows) error { return nil }); err != nil {
			p.Error = err.Error()
			continue
		}
		p.Millis = float64(time.Since(start).Microseconds()) / 1000
	}
	return plans
}

// sqliteFullScan reports the table of a plan step that scans without an
// index, as in "SCAN users" or "SCAN TABLE users".
func sqliteFullScan(detail string) (string, bool) {
	fields := strings.Fields(detail)
	if len(fields) < 2 || fields[0] != "SCAN" || fields[1] == "CONSTANT" || strings.Contains(detail, " USING ") {
		return "", false
	}
	table := fields[1]
	if table == "TABLE" && len(fields) > 2 {
		table = fields[2]
	}
	return table, true
}

// planFindings reports full scans and statements slower than the threshold.
func planFindings(plans []Plan, opts ExplainOptions) []Finding {
	findings := []Finding{}
	slowMillis := float64(opts.SlowQuery.Microseconds()) / 1000
	for _, p := range plans {
		if p.Skipped != "" || p.Error != "" {
			continue
		}
		base := Finding{File: p.File, Line: p.Line}
		if opts.SlowQuery > 0 && p.Millis > slowMillis {
			f := base
			f.Severity = SeverityHigh
			f.Kind = KindSlowQuery
			f.Message = "query took " + strconv.FormatFloat(p.Millis, 'f', 1, 64) + "ms: " + Truncate(p.Query, 80)
			f.Suggestion = "Check the plan steps and index the filtered columns"
			findings = append(findings, f)
		}
		for _, table := range p.SeqScans {
			f := base
			f.Severity = SeverityMedium
			f.Kind = KindSeqScan
			f.Table = table
			f.Message = "full scan of " + table + ": " + Truncate(p.Query, 80)
			f.Suggestion = "Add an index on the columns this query filters or joins " + table + " by"
			findings = append(findings, f)
		}
	}
	SortFindings(findings)
	return findings
}
