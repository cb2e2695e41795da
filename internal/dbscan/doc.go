// Package dbscan finds database access problems in a project, statically
// and against a live database.
//
// The static analyzers work on source text alone:
//
//   - [FindQueries] lists raw SQL literals and ORM calls and flags
//     literals built by interpolation.
//   - [DetectNPlusOne] flags loops whose bodies issue queries.
//   - [AnalyzeSchema] reads migrations and ORM models and reports missing
//     primary keys, unindexed foreign keys and duplicate indexes.
//
// The live analyzers connect with a DSN. postgres:// URLs use the pgx
// driver, sqlite: URLs and *.db files use the pure Go SQLite driver, and
// redis:// URLs use go-redis. Connections are read-only where the database
// allows it: PostgreSQL work runs in READ ONLY transactions that are rolled
// back, and SQLite files are opened with mode=ro.
//
//   - [Inspect] snapshots tables, indexes, foreign keys and statistics.
//   - [Explain] runs the SELECT statements found by FindQueries through
//     the planner.
//   - [Compare] diffs the tables the code expects against the live ones.
package dbscan
