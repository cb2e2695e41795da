package dbscan

import (
	"context"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Category groups query sources by the kind of database they talk to.
type Category string

// Database categories.
const (
	CategorySQL    Category = "sql"
	CategoryNoSQL  Category = "nosql"
	CategoryVector Category = "vector"
	CategoryGraph  Category = "graph"
)

// QueryTypeRaw marks a SQL string literal.
const QueryTypeRaw = "raw_sql"

// Query is one database access found in source.
type Query struct {
	// Type is QueryTypeRaw or the name of the ORM or client library.
	Type     string   `json:"type"`
	Category Category `json:"category"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	// Text is the SQL with whitespace collapsed, or the matched call.
	Text string `json:"query"`
	// Tables lists the tables a raw SQL statement reads or writes.
	Tables        []string `json:"tables,omitempty"`
	InjectionRisk bool     `json:"sql_injection_risk,omitempty"`
	Context       []string `json:"context,omitempty"`
}

// FileCount is the number of queries found in one file.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// QuerySummary aggregates a QueryReport.
type QuerySummary struct {
	Total          int              `json:"total"`
	RawSQL         int              `json:"raw_sql"`
	ORM            int              `json:"orm"`
	InjectionRisks int              `json:"sql_injection_risks"`
	ByCategory     map[Category]int `json:"by_category"`
	TopFiles       []FileCount      `json:"top_files"`
}

// QueryReport is the result of FindQueries.
type QueryReport struct {
	Root    string       `json:"root"`
	Queries []Query      `json:"queries"`
	Summary QuerySummary `json:"summary"`
}

// sourceExts are the languages scanned for queries.
var sourceExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".py", ".rb", ".go", ".java", ".php"}

type ormRule struct {
	name     string
	category Category
	// exts limits the rule to some languages; empty means all.
	exts     []string
	patterns []*regexp.Regexp
}

func orm(name string, category Category, exts []string, patterns ...string) ormRule {
	r := ormRule{name: name, category: category, exts: exts}
	for _, p := range patterns {
		r.patterns = append(r.patterns, regexp.MustCompile(p))
	}
	return r
}

var (
	jsExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}
	pyExts = []string{".py"}
)

// ormRules recognise ORM and client calls. Each rule reports a line once.
var ormRules = []ormRule{
	orm("prisma", CategorySQL, jsExts,
		`prisma\.\w+\.(findMany|findUnique|findFirst|create|createMany|update|updateMany|delete|deleteMany|upsert|count|aggregate|groupBy)\(`,
		`prisma\.\$(queryRaw|executeRaw|queryRawUnsafe|executeRawUnsafe)`),
	orm("typeorm", CategorySQL, jsExts,
		`createQueryBuilder\(`, `getRepository\(`, `\.manager\.(find|findOne|save|query)\(`),
	orm("sequelize", CategorySQL, jsExts,
		`sequelize\.query\(`, `\b[A-Z]\w*\.(findAll|findByPk|findAndCountAll|bulkCreate|destroy)\(`),
	orm("knex", CategorySQL, jsExts, "knex\\(['\"`]\\w+['\"`]\\)"),
	orm("drizzle", CategorySQL, jsExts, `\bdb\.(select|insert|update|delete)\(`),
	orm("sqlalchemy", CategorySQL, pyExts,
		`\bsession\.(query|add|add_all|delete|execute|scalars)\(`),
	orm("django", CategorySQL, pyExts,
		`\.objects\.(all|get|filter|exclude|create|update|delete|bulk_create|get_or_create|values)\(`),
	orm("asyncpg", CategorySQL, pyExts,
		`await\s+\w+\.(fetch|fetchrow|fetchval)\(`, `asyncpg\.create_pool\(`),
	orm("dbapi", CategorySQL, pyExts,
		`\bcursor\.(execute|executemany)\(`, `aiomysql\.create_pool\(`),
	orm("activerecord", CategorySQL, []string{".rb"},
		`\b[A-Z]\w*\.(find_by|find_each|where|pluck|destroy_all)\b`),
	orm("gorm", CategorySQL, []string{".go"},
		`\bdb\.(Find|First|Last|Take|Create|Save|Updates?|Delete|Where|Joins|Preload|Raw)\(`),
	orm("database/sql", CategorySQL, []string{".go"},
		`\b(db|tx|conn|stmt)\.(Query|QueryRow|Exec)(Context)?\(`),
	orm("jpa", CategorySQL, []string{".java"},
		`entityManager\.(find|persist|merge|remove|createQuery|createNativeQuery)\(`, `@Query\(`),
	orm("mongodb", CategoryNoSQL, nil,
		`\bcollection\.(find|find_one|findOne|insert_one|insertOne|insertMany|insert_many|update_one|updateOne|updateMany|update_many|delete_one|deleteOne|deleteMany|delete_many|aggregate)\(`),
	orm("mongoose", CategoryNoSQL, jsExts,
		`\b[A-Z]\w*\.(findById|findByIdAndUpdate|findByIdAndDelete)\(`, `mongoose\.model\(`),
	orm("redis", CategoryNoSQL, nil,
		`(?i)\b(redis|rdb|redisClient)\.(get|set|setex|del|delete|hget|hset|lpush|rpush|zadd|expire)\(`),
	orm("pinecone", CategoryVector, nil,
		`\bindex\.(query|upsert|delete|fetch|update)\(`, `pinecone\.(createIndex|describeIndex|create_index)\(`),
	orm("chromadb", CategoryVector, nil, `\bcollection\.(query|add|upsert|get)\(`),
	orm("milvus", CategoryVector, pyExts, `\bcollection\.(search|insert)\(`),
	orm("weaviate", CategoryVector, nil, `\bclient\.(query|data|data_object)\.(get|create|update|delete)\(`),
	orm("qdrant", CategoryVector, nil, `\bclient\.(search|upsert|retrieve|scroll)\(`),
	orm("neo4j", CategoryGraph, nil,
		`\bsession\.(run|readTransaction|writeTransaction|read_transaction|write_transaction|execute_read|execute_write)\(`,
		`\bMATCH\s+\(`),
	orm("arangodb", CategoryGraph, nil, `\bdb\._query\(`, `\bdb\.AQLQuery\(`, `\bFOR\s+\w+\s+IN\s+\w+`),
}

// stringLiteralRe matches Python triple-quoted strings, backtick strings and
// single-line quoted strings, in that order of preference.
var stringLiteralRe = regexp.MustCompile("(?s)\"\"\"(.*?)\"\"\"|'''(.*?)'''|`([^`]*)`|\"((?:[^\"\\\\\\n]|\\\\.)*)\"|'((?:[^'\\\\\\n]|\\\\.)*)'")

// sqlShapeRe accepts text that starts like a SQL statement.
var sqlShapeRe = regexp.MustCompile(`(?is)^\s*(` +
	`SELECT\s.+\sFROM\s|SELECT\s+[\d*(]|` +
	`INSERT\s+INTO\s|UPDATE\s+\S+\s+SET\s|DELETE\s+FROM\s|` +
	`CREATE\s+(UNIQUE\s+)?(TABLE|INDEX|VIEW)\s|DROP\s+(TABLE|INDEX|VIEW)\s|ALTER\s+TABLE\s|` +
	`TRUNCATE\s|MERGE\s+INTO\s|UPSERT\s|WITH\s+\w+\s+AS\s*\()`)

// tableRefRe finds table names after the clauses that name one.
var tableRefRe = regexp.MustCompile("(?i)\\b(?:FROM|JOIN|INTO|UPDATE)\\s+[`\"']?(?:\\w+\\.)?(\\w+)")

var (
	concatBeforeRe = regexp.MustCompile(`\+\s*$`)
	concatAfterRe  = regexp.MustCompile(`^\s*(\+|%\s*[(\w]|\.format\()`)
	sprintfRe      = regexp.MustCompile(`Sprintf\(\s*$`)
	verbRe         = regexp.MustCompile(`%[sdvq]`)
)

// minQueryLength drops literals too short to be a real statement.
const minQueryLength = 10

// FindQueries scans root for raw SQL literals and ORM calls. root may be a
// single file.
func FindQueries(ctx context.Context, root string) (*QueryReport, error) {
	report := &QueryReport{Root: root, Queries: []Query{}}
	err := walkSources(ctx, root, hasExt(sourceExts...), func(f sourceFile) error {
		report.Queries = append(report.Queries, findInSource(f.Rel, string(f.Data))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Summary = summarize(report.Queries)
	return report, nil
}

// findInSource returns the queries in one file, ordered by line.
func findInSource(rel, content string) []Query {
	lines := strings.Split(content, "\n")
	queries := findRawSQL(rel, content, lines)
	queries = append(queries, findORMCalls(rel, content, lines)...)
	slices.SortStableFunc(queries, func(a, b Query) int { return a.Line - b.Line })
	return queries
}

func findRawSQL(rel, content string, lines []string) []Query {
	var out []Query
	for _, m := range stringLiteralRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := -1, -1
		for g := 1; g <= 5; g++ {
			if m[2*g] >= 0 {
				start, end = m[2*g], m[2*g+1]
				break
			}
		}
		if start < 0 {
			continue
		}
		body := content[start:end]
		if len(strings.TrimSpace(body)) < minQueryLength || !sqlShapeRe.MatchString(body) {
			continue
		}

		line := lineAt(content, m[0])
		out = append(out, Query{
			Type:          QueryTypeRaw,
			Category:      CategorySQL,
			File:          rel,
			Line:          line,
			Text:          strings.Join(strings.Fields(body), " "),
			Tables:        referencedTables(body),
			InjectionRisk: interpolated(content, m[0], m[1], body),
			Context:       contextLines(lines, line, 1, 2),
		})
	}
	return out
}

// interpolated reports whether the literal spanning content[start:end] is
// built from variables rather than passed with bind parameters.
func interpolated(content string, start, end int, body string) bool {
	if strings.Contains(body, "${") {
		return true
	}

	before := content[max(0, start-40):start]
	after := content[end:min(len(content), end+40)]
	if nl := strings.LastIndexByte(before, '\n'); nl >= 0 {
		before = before[nl+1:]
	}
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		after = after[:nl]
	}

	// f"..." and rf"..." in Python.
	if strings.HasSuffix(strings.ToLower(before), "f") && strings.Contains(body, "{") {
		return true
	}
	if concatBeforeRe.MatchString(before) || concatAfterRe.MatchString(after) {
		return true
	}
	return sprintfRe.MatchString(before) && verbRe.MatchString(body)
}

// referencedTables lists the distinct lowercase table names in a statement.
func referencedTables(sql string) []string {
	var tables []string
	for _, m := range tableRefRe.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if isSQLKeyword(name) || slices.Contains(tables, name) {
			continue
		}
		tables = append(tables, name)
	}
	return tables
}

func isSQLKeyword(word string) bool {
	switch word {
	case "select", "where", "set", "values", "lateral", "only", "unnest", "generate_series":
		return true
	}
	return false
}

func findORMCalls(rel, content string, lines []string) []Query {
	ext := path.Ext(rel)
	var out []Query
	for _, rule := range ormRules {
		if len(rule.exts) > 0 && !slices.Contains(rule.exts, ext) {
			continue
		}
		seen := make(map[int]bool)
		for _, p := range rule.patterns {
			for _, loc := range p.FindAllStringIndex(content, -1) {
				line := lineAt(content, loc[0])
				if seen[line] {
					continue
				}
				seen[line] = true
				out = append(out, Query{
					Type:     rule.name,
					Category: rule.category,
					File:     rel,
					Line:     line,
					Text:     content[loc[0]:loc[1]],
					Context:  contextLines(lines, line, 0, 1),
				})
			}
		}
	}
	return out
}

// topFiles is the number of files listed in QuerySummary.TopFiles.
const topFiles = 10

func summarize(queries []Query) QuerySummary {
	s := QuerySummary{Total: len(queries), ByCategory: make(map[Category]int)}
	perFile := make(map[string]int)
	for _, q := range queries {
		if q.Type == QueryTypeRaw {
			s.RawSQL++
		} else {
			s.ORM++
		}
		if q.InjectionRisk {
			s.InjectionRisks++
		}
		s.ByCategory[q.Category]++
		perFile[q.File]++
	}

	for file, n := range perFile {
		s.TopFiles = append(s.TopFiles, FileCount{File: file, Count: n})
	}
	slices.SortFunc(s.TopFiles, func(a, b FileCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.File, b.File)
	})
	if len(s.TopFiles) > topFiles {
		s.TopFiles = s.TopFiles[:topFiles]
	}
	return s
}

// Findings reports every raw SQL literal built by interpolation.
func (r *QueryReport) Findings() []Finding {
	var out []Finding
	for _, q := range r.Queries {
		if !q.InjectionRisk {
			continue
		}
		out = append(out, Finding{
			Severity:   SeverityHigh,
			Kind:       "sql_injection_risk",
			File:       q.File,
			Line:       q.Line,
			Message:    "SQL built by string interpolation: " + Truncate(q.Text, 80),
			Suggestion: "Pass values as bind parameters instead of formatting them into the statement",
			Context:    q.Context,
		})
	}
	return out
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:max(0, n-3)]) + "..."
}
