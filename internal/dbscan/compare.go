package dbscan

import (
	"context"
	"slices"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Comparison finding kinds.
const (
	KindMissingTable  = "missing_table_in_db"
	KindMissingColumn = "missing_column_in_db"
	KindExtraTable    = "extra_table_in_db"
	KindExtraColumn   = "extra_column_in_db"
)

// bookkeepingTables belong to migration tools, not to the application.
var bookkeepingTables = []string{
	"schema_migrations", "ar_internal_metadata", "alembic_version", "_prisma_migrations",
	"knex_migrations", "knex_migrations_lock", "django_migrations", "goose_db_version",
	"typeorm_metadata", "migrations", "spatial_ref_sys",
}

// Comparison is the result of Compare.
type Comparison struct {
	Root     string `json:"root"`
	Database string `json:"database"`
	// CodeTables lists the tables declared or queried by the code.
	CodeTables []string  `json:"code_tables"`
	LiveTables []string  `json:"live_tables"`
	Findings   []Finding `json:"findings"`
}

// Compare scans root and inspects dsn, then diffs the two.
func Compare(ctx context.Context, root, dsn string) (*Comparison, error) {
	driver, err := Detect(dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverRedis {
		return nil, errors.NewUserError(errors.Wrap(ErrUnsupportedDatabase, "redis has no tables to compare"),
			"Use a postgres:// or sqlite: DSN")
	}

	schema, err := AnalyzeSchema(ctx, root)
	if err != nil {
		return nil, err
	}
	queries, err := FindQueries(ctx, root)
	if err != nil {
		return nil, err
	}
	live, err := Inspect(ctx, dsn, InspectOptions{})
	if err != nil {
		return nil, err
	}
	return CompareTables(schema, queries, live), nil
}

// CompareTables reports tables and columns the code expects but the
// database lacks, and the reverse.
func CompareTables(schema *SchemaReport, queries *QueryReport, live *Snapshot) *Comparison {
	c := &Comparison{Root: schema.Root, Database: live.Database, Findings: []Finding{}}

	liveByName := make(map[string]*Table)
	for _, t := range live.Tables {
		liveByName[strings.ToLower(t.Name)] = t
		c.LiveTables = append(c.LiveTables, t.Name)
	}

	code := make(map[string]bool)
	for _, t := range schema.Tables {
		key := strings.ToLower(t.Name)
		code[key] = true
		c.CodeTables = append(c.CodeTables, t.Name)

		lt, ok := liveByName[key]
		if !ok {
			c.Findings = append(c.Findings, Finding{
				Severity:   SeverityHigh,
				Kind:       KindMissingTable,
				File:       t.Source,
				Line:       t.Line,
				Table:      t.Name,
				Message:    "table " + t.Name + " is declared but missing from the database",
				Suggestion: "Run the pending migrations",
			})
			continue
		}
		c.Findings = append(c.Findings, compareColumns(t, lt)...)
	}

	if queries != nil {
		for _, q := range queries.Queries {
			for _, name := range q.Tables {
				if code[name] {
					continue
				}
				code[name] = true
				c.CodeTables = append(c.CodeTables, name)
				if _, ok := liveByName[name]; ok {
					continue
				}
				c.Findings = append(c.Findings, Finding{
					Severity:   SeverityHigh,
					Kind:       KindMissingTable,
					File:       q.File,
					Line:       q.Line,
					Table:      name,
					Message:    "query references table " + name + ", which the database lacks",
					Suggestion: "Create the table or fix the query",
					Context:    q.Context,
				})
			}
		}
	}

	for _, t := range live.Tables {
		key := strings.ToLower(t.Name)
		if code[key] || slices.Contains(bookkeepingTables, key) {
			continue
		}
		c.Findings = append(c.Findings, Finding{
			Severity:   SeverityLow,
			Kind:       KindExtraTable,
			Table:      t.Name,
			Message:    "table " + t.Name + " exists in the database but not in the code",
			Suggestion: "Drop it if unused, or add it to the migrations",
		})
	}

	slices.Sort(c.CodeTables)
	SortFindings(c.Findings)
	return c
}

func compareColumns(code, live *Table) []Finding {
	var out []Finding
	for _, col := range code.Columns {
		if live.column(col.Name) != nil {
			continue
		}
		out = append(out, Finding{
			Severity:   SeverityHigh,
			Kind:       KindMissingColumn,
			File:       code.Source,
			Line:       code.Line,
			Table:      code.Name,
			Column:     col.Name,
			Message:    "column " + code.Name + "." + col.Name + " is declared but missing from the database",
			Suggestion: "Run the pending migrations",
		})
	}
	if len(code.Columns) == 0 {
		return out
	}
	for _, col := range live.Columns {
		if code.column(col.Name) != nil {
			continue
		}
		out = append(out, Finding{
			Severity:   SeverityLow,
			Kind:       KindExtraColumn,
			Table:      live.Name,
			Column:     col.Name,
			Message:    "column " + live.Name + "." + col.Name + " exists in the database but not in the code",
			Suggestion: "Drop it if unused, or declare it in the model",
		})
	}
	return out
}
