package dbscan

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// Driver names a supported database.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverRedis    Driver = "redis"
)

// ErrUnsupportedDatabase is returned for DSNs no bundled driver handles.
var ErrUnsupportedDatabase = errors.New("unsupported database")

// Detect picks the driver for dsn from its scheme or file extension.
func Detect(dsn string) (Driver, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	scheme, _, hasScheme := strings.Cut(lower, "://")
	switch {
	case lower == "":
		return "", errors.NewUserError(errors.New("no database DSN"),
			"Pass --dsn, set db.dsn in the config, or export DATABASE_URL")
	case scheme == "postgres" || scheme == "postgresql":
		return DriverPostgres, nil
	case scheme == "redis" || scheme == "rediss":
		return DriverRedis, nil
	case strings.HasPrefix(lower, "sqlite:"), strings.HasPrefix(lower, "file:"):
		return DriverSQLite, nil
	case hasScheme && slices.Contains([]string{"mysql", "mongodb", "mongodb+srv", "neo4j", "bolt"}, scheme):
		return "", errors.NewUserError(errors.Wrapf(ErrUnsupportedDatabase, "%s", scheme),
			"Only PostgreSQL, SQLite and Redis can be inspected; the static analyzers still apply")
	}

	switch filepath.Ext(lower) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite, nil
	}
	return "", errors.NewUserError(errors.Wrapf(ErrUnsupportedDatabase, "cannot tell the database from %q", Redact(dsn)),
		"Use a postgres://, sqlite: or redis:// URL")
}

// Redact hides the password in a URL-shaped DSN.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

// sqliteDSN turns a sqlite: URL or bare path into a read-only file URI.
func sqliteDSN(dsn string) string {
	p := dsn
	for _, prefix := range []string{"sqlite://", "sqlite:", "file:"} {
		if len(p) >= len(prefix) && strings.EqualFold(p[:len(prefix)], prefix) {
			p = p[len(prefix):]
			break
		}
	}
	p, query, _ := strings.Cut(p, "?")
	values, _ := url.ParseQuery(query)
	values.Set("mode", "ro")
	return "file:" + p + "?" + values.Encode()
}

// OpenSQL opens and pings a PostgreSQL or SQLite database. SQLite files are
// opened read-only.
func OpenSQL(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	case DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
	default:
		return nil, errors.Wrapf(ErrUnsupportedDatabase, "%s is not a SQL database", driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", Redact(dsn))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewSystemError(errors.Wrapf(err, "connecting to %s", Redact(dsn)),
			"Check that the database is running and the DSN is correct")
	}
	return db, nil
}

// TableStats holds planner statistics for one table.
type TableStats struct {
	Table      string `json:"table"`
	Rows       int64  `json:"rows"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	SeqScans   int64  `json:"seq_scans,omitempty"`
	IndexScans int64  `json:"index_scans,omitempty"`
}

// Snapshot describes a live database.
type Snapshot struct {
	Driver Driver `json:"driver"`
	// Database is the DSN with its password removed.
	Database string       `json:"database"`
	Tables   []*Table     `json:"tables,omitempty"`
	Stats    []TableStats `json:"stats,omitempty"`
	Keyspace *Keyspace    `json:"keyspace,omitempty"`
	Findings []Finding    `json:"findings"`
}

// InspectOptions tunes Inspect.
type InspectOptions struct {
	// SampleKeys caps the Redis keys examined.
	SampleKeys int
}

// Inspect connects to dsn and snapshots its schema or keyspace.
func Inspect(ctx context.Context, dsn string, opts InspectOptions) (*Snapshot, error) {
	driver, err := Detect(dsn)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("inspecting database", "driver", driver, "dsn", Redact(dsn))

	var snap *Snapshot
	switch driver {
	case DriverRedis:
		opt, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, errors.NewUserError(errors.Wrap(err, "parsing redis URL"), "Use redis://[user:password@]host:port/db")
		}
		client := redis.NewClient(opt)
		defer client.Close()
		snap, err = InspectRedis(ctx, client, opts.SampleKeys)
		if err != nil {
			return nil, err
		}
	default:
		db, err := OpenSQL(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if driver == DriverPostgres {
			snap, err = InspectPostgres(ctx, db)
		} else {
			snap, err = InspectSQLite(ctx, db)
		}
		if err != nil {
			return nil, err
		}
	}
	snap.Database = Redact(dsn)
	return snap, nil
}

// PostgreSQL catalog queries, limited to the current schema.
const (
	pgTablesQuery = `SELECT c.relname, GREATEST(c.reltuples, 0)::bigint, pg_total_relation_size(c.oid)
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r', 'p') AND n.nspname = current_schema()
ORDER BY c.relname`

	pgColumnsQuery = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`

	pgIndexesQuery = `SELECT t.relname, i.relname, ix.indisunique, ix.indisprimary,
       array_agg(a.attname ORDER BY k.n)::text
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace ns ON ns.oid = t.relnamespace
CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, n)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE ns.nspname = current_schema()
GROUP BY t.relname, i.relname, ix.indisunique, ix.indisprimary
ORDER BY t.relname, i.relname`

	pgForeignKeysQuery = `SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema()
ORDER BY tc.table_name, kcu.ordinal_position`

	pgStatsQuery = `SELECT relname, COALESCE(seq_scan, 0), COALESCE(idx_scan, 0), n_live_tup
FROM pg_stat_user_tables
WHERE schemaname = current_schema()`
)

// seqScanRows is the row count above which sequential scans are reported.
const seqScanRows = 10000

// InspectPostgres reads the catalog inside a READ ONLY transaction that is
// always rolled back.
func InspectPostgres(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "starting read-only transaction")
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	set := newSchemaSet()
	snap := &Snapshot{Driver: DriverPostgres}
	sizes := make(map[string]TableStats)

	err = queryRows(ctx, tx, pgTablesQuery, func(rows *sql.Rows) error {
		var s TableStats
		if err := rows.Scan(&s.Table, &s.Rows, &s.SizeBytes); err != nil {
			return err
		}
		set.put(&Table{Name: s.Table, Columns: []Column{}})
		sizes[s.Table] = s
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}

	err = queryRows(ctx, tx, pgColumnsQuery, func(rows *sql.Rows) error {
		var table string
		var col Column
		if err := rows.Scan(&table, &col.Name, &col.Type); err != nil {
			return err
		}
		if t := set.get(table); t != nil {
			t.addColumn(col)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing columns")
	}

	err = queryRows(ctx, tx, pgIndexesQuery, func(rows *sql.Rows) error {
		var table, name string
		var unique, primary bool
		var cols pq.StringArray
		if err := rows.Scan(&table, &name, &unique, &primary, &cols); err != nil {
			return err
		}
		t := set.get(table)
		if t == nil {
			return nil
		}
		if primary {
			t.PrimaryKey = []string(cols)
			return nil
		}
		t.Indexes = append(t.Indexes, Index{Name: name, Columns: []string(cols), Unique: unique})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing indexes")
	}

	err = queryRows(ctx, tx, pgForeignKeysQuery, func(rows *sql.Rows) error {
		var table, col, refTable, refCol string
		if err := rows.Scan(&table, &col, &refTable, &refCol); err != nil {
			return err
		}
		if t := set.get(table); t != nil {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{Columns: []string{col}, RefTable: refTable, RefColumns: []string{refCol}})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing foreign keys")
	}

	err = queryRows(ctx, tx, pgStatsQuery, func(rows *sql.Rows) error {
		var table string
		var seq, idx, live int64
		if err := rows.Scan(&table, &seq, &idx, &live); err != nil {
			return err
		}
		if s, ok := sizes[table]; ok {
			s.SeqScans, s.IndexScans, s.Rows = seq, idx, live
			sizes[table] = s
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading table statistics")
	}

	snap.Tables = set.list()
	for _, t := range snap.Tables {
		snap.Stats = append(snap.Stats, sizes[t.Name])
	}
	snap.Findings = append(checkTables(snap.Tables), statsFindings(snap.Stats)...)
	SortFindings(snap.Findings)
	return snap, nil
}

// statsFindings reports large tables read mostly by sequential scans.
func statsFindings(stats []TableStats) []Finding {
	var out []Finding
	for _, s := range stats {
		if s.Rows < seqScanRows || s.SeqScans <= s.IndexScans {
			continue
		}
		out = append(out, Finding{
			Severity: SeverityMedium,
			Kind:     "seq_scan_heavy",
			Table:    s.Table,
			Message: "table " + s.Table + " (" + strconv.FormatInt(s.Rows, 10) + " rows) had " +
				strconv.FormatInt(s.SeqScans, 10) + " sequential scans and " +
				strconv.FormatInt(s.IndexScans, 10) + " index scans",
			Suggestion: "Run plugkit db explain on the queries touching this table and index their filters",
		})
	}
	return out
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryRows runs query and calls fn for each row.
func queryRows(ctx context.Context, q querier, query string, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// queryMaps runs query and returns each row keyed by column name. PRAGMA
// result shapes differ between SQLite versions.
func queryMaps(ctx context.Context, q querier, query string) ([]map[string]any, error) {
	var out []map[string]any
	err := queryRows(ctx, q, query, func(rows *sql.Rows) error {
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

func asString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func asInt(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	}
	return 0
}

// InspectSQLite reads sqlite_master and the table PRAGMAs.
func InspectSQLite(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	snap := &Snapshot{Driver: DriverSQLite}

	var names []string
	err := queryRows(ctx, db, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
			return nil
		})
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}

	for _, name := range names {
		t, err := sqliteTable(ctx, db, name)
		if err != nil {
			return nil, errors.Wrapf(err, "inspecting table %s", name)
		}
		snap.Tables = append(snap.Tables, t)

		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(name)).Scan(&count); err != nil {
			return nil, errors.Wrapf(err, "counting rows of %s", name)
		}
		snap.Stats = append(snap.Stats, TableStats{Table: name, Rows: count})
	}

	snap.Findings = checkTables(snap.Tables)
	return snap, nil
}

func sqliteTable(ctx context.Context, db *sql.DB, name string) (*Table, error) {
	quoted := pq.QuoteIdentifier(name)
	t := &Table{Name: name, Columns: []Column{}}

	cols, err := queryMaps(ctx, db, "PRAGMA table_info("+quoted+")")
	if err != nil {
		return nil, err
	}
	pk := make(map[int64]string)
	for _, c := range cols {
		col := Column{Name: asString(c["name"]), Type: strings.ToLower(asString(c["type"]))}
		t.addColumn(col)
		if n := asInt(c["pk"]); n > 0 {
			pk[n] = col.Name
		}
	}
	for i := int64(1); i <= int64(len(pk)); i++ {
		t.PrimaryKey = append(t.PrimaryKey, pk[i])
	}

	indexes, err := queryMaps(ctx, db, "PRAGMA index_list("+quoted+")")
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		idxName := asString(idx["name"])
		info, err := queryMaps(ctx, db, "PRAGMA index_info("+pq.QuoteIdentifier(idxName)+")")
		if err != nil {
			return nil, err
		}
		slices.SortFunc(info, func(a, b map[string]any) int { return int(asInt(a["seqno"]) - asInt(b["seqno"])) })
		var columns []string
		for _, c := range info {
			columns = append(columns, asString(c["name"]))
		}
		// The implicit index behind a non-INTEGER primary key.
		if asString(idx["origin"]) == "pk" {
			if len(t.PrimaryKey) == 0 {
				t.PrimaryKey = columns
			}
			continue
		}
		t.Indexes = append(t.Indexes, Index{Name: idxName, Columns: columns, Unique: asInt(idx["unique"]) == 1})
	}

	fks, err := queryMaps(ctx, db, "PRAGMA foreign_key_list("+quoted+")")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]int)
	for _, fk := range fks {
		id := asInt(fk["id"])
		i, ok := byID[id]
		if !ok {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{RefTable: asString(fk["table"])})
			i = len(t.ForeignKeys) - 1
			byID[id] = i
		}
		t.ForeignKeys[i].Columns = append(t.ForeignKeys[i].Columns, asString(fk["from"]))
		if to := asString(fk["to"]); to != "" {
			t.ForeignKeys[i].RefColumns = append(t.ForeignKeys[i].RefColumns, to)
		}
	}
	return t, nil
}

// Keyspace summarises a sample of Redis keys.
type Keyspace struct {
	Keys       int64          `json:"keys"`
	UsedMemory string         `json:"used_memory,omitempty"`
	Sampled    int            `json:"sampled"`
	Types      map[string]int `json:"types"`
	WithoutTTL int            `json:"without_ttl"`
	// Prefixes counts sampled keys by the text before their first colon.
	Prefixes map[string]int `json:"prefixes"`
}

// InspectRedis samples up to sample keys with SCAN and records their types
// and expiry. Nothing is written.
func InspectRedis(ctx context.Context, client *redis.Client, sample int) (*Snapshot, error) {
	logger := logging.FromContext(ctx)
	ks := &Keyspace{Types: make(map[string]int), Prefixes: make(map[string]int)}

	if info, err := client.Info(ctx, "memory").Result(); err != nil {
		logger.Debug("INFO memory unavailable", "error", err)
	} else {
		ks.UsedMemory = infoField(info, "used_memory_human")
	}

	size, err := client.DBSize(ctx).Result()
	if err != nil {
		return nil, errors.NewSystemError(errors.Wrap(err, "reading DBSIZE"), "Check that Redis is reachable")
	}
	ks.Keys = size

	var cursor uint64
	for ks.Sampled < sample {
		keys, next, err := client.Scan(ctx, cursor, "*", int64(min(sample, 1000))).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scanning keys")
		}
		for _, key := range keys {
			if ks.Sampled >= sample {
				break
			}
			typ, err := client.Type(ctx, key).Result()
			if err != nil || typ == "none" {
				continue
			}
			ttl, err := client.TTL(ctx, key).Result()
			if err != nil {
				continue
			}
			ks.Sampled++
			ks.Types[typ]++
			if ttl == -1 {
				ks.WithoutTTL++
			}
			prefix, _, _ := strings.Cut(key, ":")
			ks.Prefixes[prefix]++
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	snap := &Snapshot{Driver: DriverRedis, Keyspace: ks, Findings: []Finding{}}
	if ks.Sampled > 0 && ks.WithoutTTL*2 > ks.Sampled {
		snap.Findings = append(snap.Findings, Finding{
			Severity: SeverityLow,
			Kind:     "keys_without_ttl",
			Message: strconv.Itoa(ks.WithoutTTL) + " of " + strconv.Itoa(ks.Sampled) +
				" sampled keys never expire",
			Suggestion: "Set a TTL on cache entries so memory is reclaimed",
		})
	}
	return snap, nil
}

// infoField returns the value of key in an INFO reply.
func infoField(info, key string) string {
	for _, line := range strings.Split(info, "\n") {
		if k, v, ok := strings.Cut(strings.TrimSpace(line), ":"); ok && k == key {
			return v
		}
	}
	return ""
}
