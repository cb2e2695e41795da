package dbscan

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Analysis combines every analyzer over one project.
type Analysis struct {
	Root     string        `json:"root"`
	Queries  *QueryReport  `json:"queries"`
	NPlusOne []Finding     `json:"n_plus_one"`
	Schema   *SchemaReport `json:"schema"`
	// Live and Comparison are set when a SQL DSN was given.
	Live       *Snapshot   `json:"live,omitempty"`
	Comparison *Comparison `json:"comparison,omitempty"`
	// Findings holds every finding above, sorted by severity.
	Findings []Finding `json:"findings"`
}

// Analyze runs the static analyzers over root concurrently. With a dsn it
// also inspects the database and, for SQL databases, compares it with the
// code.
func Analyze(ctx context.Context, root, dsn string, opts InspectOptions) (*Analysis, error) {
	a := &Analysis{Root: root}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := FindQueries(gctx, root)
		a.Queries = r
		return err
	})
	g.Go(func() error {
		f, err := DetectNPlusOne(gctx, root)
		a.NPlusOne = f
		return err
	})
	g.Go(func() error {
		r, err := AnalyzeSchema(gctx, root)
		a.Schema = r
		return err
	})
	if dsn != "" {
		g.Go(func() error {
			s, err := Inspect(gctx, dsn, opts)
			a.Live = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.Findings = append(a.Findings, a.Queries.Findings()...)
	a.Findings = append(a.Findings, a.NPlusOne...)
	a.Findings = append(a.Findings, a.Schema.Findings...)
	if a.Live != nil {
		a.Findings = append(a.Findings, a.Live.Findings...)
		if a.Live.Driver != DriverRedis {
			a.Comparison = CompareTables(a.Schema, a.Queries, a.Live)
			a.Findings = append(a.Findings, a.Comparison.Findings...)
		}
	}
	if a.Findings == nil {
		a.Findings = []Finding{}
	}
	SortFindings(a.Findings)
	return a, nil
}
