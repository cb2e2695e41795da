package dbscan

import (
	"context"
	"path"
	"regexp"
	"slices"
	"strings"
)

// Schema finding kinds.
const (
	KindMissingPrimaryKey = "missing_primary_key"
	KindMissingFKIndex    = "missing_fk_index"
	KindMissingIndexes    = "missing_indexes"
	KindDuplicateIndex    = "duplicate_index"
)

// Column is one column of a table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Index is a secondary index or unique constraint.
type Index struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// ForeignKey links columns of a table to another table.
type ForeignKey struct {
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns,omitempty"`
}

// Table is a table as declared in code or found in a live database.
type Table struct {
	Name string `json:"name"`
	// Source is the file that declared the table, empty for live tables.
	Source      string       `json:"source,omitempty"`
	Line        int          `json:"line,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// column returns the named column, ignoring case.
func (t *Table) column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *Table) addColumn(c Column) {
	if t.column(c.Name) == nil {
		t.Columns = append(t.Columns, c)
	}
}

// SchemaReport is the result of AnalyzeSchema.
type SchemaReport struct {
	Root     string    `json:"root"`
	Sources  []string  `json:"sources"`
	Tables   []*Table  `json:"tables"`
	Findings []Finding `json:"findings"`
}

// schemaSet accumulates tables by lowercase name in declaration order.
type schemaSet struct {
	order  []string
	tables map[string]*Table
}

func newSchemaSet() *schemaSet {
	return &schemaSet{tables: make(map[string]*Table)}
}

func (s *schemaSet) get(name string) *Table {
	return s.tables[strings.ToLower(name)]
}

// put declares a table, replacing an earlier declaration of the same name.
func (s *schemaSet) put(t *Table) {
	key := strings.ToLower(t.Name)
	if _, ok := s.tables[key]; !ok {
		s.order = append(s.order, key)
	}
	s.tables[key] = t
}

func (s *schemaSet) drop(name string) {
	key := strings.ToLower(name)
	delete(s.tables, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
}

func (s *schemaSet) list() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.tables[k])
	}
	return out
}

// isSchemaSource accepts SQL files, Prisma schemas, TypeORM entities and
// Python modules, which are checked for SQLAlchemy models.
func isSchemaSource(name string) bool {
	switch {
	case path.Ext(name) == ".sql", path.Ext(name) == ".prisma", path.Ext(name) == ".py":
		return true
	case strings.HasSuffix(name, ".entity.ts"):
		return true
	}
	return false
}

// AnalyzeSchema parses SQL migrations, Prisma schemas, TypeORM entities and
// SQLAlchemy models under root and checks the resulting tables. SQL files
// are applied in path order so later migrations override earlier ones.
func AnalyzeSchema(ctx context.Context, root string) (*SchemaReport, error) {
	set := newSchemaSet()
	report := &SchemaReport{Root: root, Sources: []string{}}
	err := walkSources(ctx, root, isSchemaSource, func(f sourceFile) error {
		before := len(set.order)
		content := string(f.Data)
		switch {
		case strings.HasSuffix(f.Rel, ".sql"):
			parseSQLSchema(set, f.Rel, content)
		case strings.HasSuffix(f.Rel, ".prisma"):
			parsePrisma(set, f.Rel, content)
		case strings.HasSuffix(f.Rel, ".entity.ts"):
			parseTypeORM(set, f.Rel, content)
		case strings.Contains(content, "__tablename__"):
			parseSQLAlchemy(set, f.Rel, content)
		default:
			return nil
		}
		if len(set.order) != before || strings.HasSuffix(f.Rel, ".sql") {
			report.Sources = append(report.Sources, f.Rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Tables = set.list()
	report.Findings = checkTables(report.Tables)
	return report, nil
}

// checkTables reports missing primary keys, foreign key columns without a
// leading index, tables with no secondary index and duplicate indexes.
func checkTables(tables []*Table) []Finding {
	findings := []Finding{}
	for _, t := range tables {
		if len(t.Columns) == 0 {
			continue
		}
		base := Finding{File: t.Source, Line: t.Line, Table: t.Name}

		if len(t.PrimaryKey) == 0 {
			f := base
			f.Severity = SeverityCritical
			f.Kind = KindMissingPrimaryKey
			f.Message = "table " + t.Name + " has no primary key"
			f.Suggestion = "Add a primary key so rows can be addressed and replicated"
			findings = append(findings, f)
		}

		for _, col := range fkColumns(t) {
			if leadsIndex(t, col) {
				continue
			}
			f := base
			f.Severity = SeverityHigh
			f.Kind = KindMissingFKIndex
			f.Column = col
			f.Message = "foreign key column " + t.Name + "." + col + " is not indexed"
			f.Suggestion = "CREATE INDEX idx_" + strings.ToLower(t.Name+"_"+col) + " ON " + t.Name + " (" + col + ");"
			findings = append(findings, f)
		}

		if len(t.Indexes) == 0 && len(t.Columns) > 2 {
			f := base
			f.Severity = SeverityMedium
			f.Kind = KindMissingIndexes
			f.Message = "table " + t.Name + " has no indexes besides its primary key"
			f.Suggestion = "Index the columns used in WHERE, JOIN and ORDER BY clauses"
			findings = append(findings, f)
		}

		findings = append(findings, duplicateIndexes(t, base)...)
	}
	SortFindings(findings)
	return findings
}

// fkColumns returns the declared foreign key columns and columns named like
// one (user_id, userId).
func fkColumns(t *Table) []string {
	var cols []string
	add := func(name string) {
		if !slices.ContainsFunc(cols, func(c string) bool { return strings.EqualFold(c, name) }) {
			cols = append(cols, name)
		}
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) > 0 {
			add(fk.Columns[0])
		}
	}
	for _, c := range t.Columns {
		if looksLikeFK(c.Name) {
			add(c.Name)
		}
	}
	return cols
}

func looksLikeFK(name string) bool {
	if strings.HasSuffix(strings.ToLower(name), "_id") {
		return true
	}
	// camelCase: userId, but not id or ID.
	return len(name) > 2 && strings.HasSuffix(name, "Id") && name[len(name)-3] >= 'a' && name[len(name)-3] <= 'z'
}

// leadsIndex reports whether col is the first column of the primary key or
// of an index.
func leadsIndex(t *Table, col string) bool {
	if len(t.PrimaryKey) > 0 && strings.EqualFold(t.PrimaryKey[0], col) {
		return true
	}
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], col) {
			return true
		}
	}
	return false
}

func duplicateIndexes(t *Table, base Finding) []Finding {
	var out []Finding
	seen := make(map[string]string)
	if len(t.PrimaryKey) > 0 {
		seen[indexKey(t.PrimaryKey)] = "the primary key"
	}
	for _, idx := range t.Indexes {
		key := indexKey(idx.Columns)
		name := idx.Name
		if name == "" {
			name = "(" + strings.Join(idx.Columns, ", ") + ")"
		}
		if prev, ok := seen[key]; ok {
			f := base
			f.Severity = SeverityLow
			f.Kind = KindDuplicateIndex
			f.Message = "index " + name + " on " + t.Name + " duplicates " + prev
			f.Suggestion = "Drop one of the indexes; each extra index slows writes"
			out = append(out, f)
			continue
		}
		seen[key] = "index " + name
	}
	return out
}

func indexKey(cols []string) string {
	return strings.ToLower(strings.Join(cols, ","))
}

// SQL DDL.

var (
	identPattern = "(?:[`\"\\[]?\\w+[`\"\\]]?\\.)?[`\"\\[]?\\w+[`\"\\]]?"

	createTableRe = regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?(?:(?:GLOBAL|LOCAL)\s+)?(?:TEMP(?:ORARY)?\s+|UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + identPattern + `)\s*\(`)
	createIndexRe = regexp.MustCompile(`(?is)^CREATE\s+(UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(?:(` + identPattern + `)\s+)?ON\s+(?:ONLY\s+)?(` + identPattern + `)\s*(?:USING\s+\w+\s*)?\(`)
	alterTableRe  = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?(` + identPattern + `)\s+(.*)$`)
	dropTableRe   = regexp.MustCompile(`(?is)^DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?(` + identPattern + `)`)

	addActionRe     = regexp.MustCompile(`(?is)^ADD\s+(?:COLUMN\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(.*)$`)
	referencesRe    = regexp.MustCompile(`(?is)\bREFERENCES\s+(` + identPattern + `)\s*(?:\(([^)]*)\))?`)
	constraintRe    = regexp.MustCompile(`(?is)^CONSTRAINT\s+` + identPattern + `\s+`)
	tablePKRe       = regexp.MustCompile(`(?is)^PRIMARY\s+KEY\s*\(([^)]*)\)`)
	tableUniqueRe   = regexp.MustCompile(`(?is)^UNIQUE\s*(?:KEY\s+|INDEX\s+)?(` + identPattern + `\s*)?\(([^)]*)\)`)
	tableFKRe       = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\s*(?:` + identPattern + `\s*)?\(([^)]*)\)`)
	tableKeyRe      = regexp.MustCompile(`(?is)^(?:KEY|INDEX)\s+(` + identPattern + `\s*)?\(([^)]*)\)`)
	columnDefRe     = regexp.MustCompile(`(?is)^(` + identPattern + `)\s+(\w+(?:\s*\([^)]*\))?(?:\[\])?)`)
	inlinePKRe      = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	inlineUniqueRe  = regexp.MustCompile(`(?i)\bUNIQUE\b`)
	skipItemRe      = regexp.MustCompile(`(?i)^(CHECK|EXCLUDE|LIKE|PERIOD)\b`)
	sqlLineComment  = regexp.MustCompile(`--[^\n]*`)
	sqlBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// unquote strips quoting and any schema prefix from an identifier.
func unquote(ident string) string {
	ident = strings.TrimSpace(ident)
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		ident = ident[i+1:]
	}
	return strings.Trim(ident, "`\"[]")
}

// identList splits a parenthesised column list. Sort order and operator
// classes are dropped; expressions are kept as written.
func identList(s string) []string {
	var out []string
	for _, part := range splitTopLevel(s, ',') {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if strings.ContainsRune(fields[0], '(') {
			out = append(out, strings.TrimSpace(part))
			continue
		}
		out = append(out, unquote(fields[0]))
	}
	return out
}

// blankComments replaces SQL comments with spaces so offsets keep their line.
func blankComments(sql string) string {
	blank := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r == '\n' {
				return r
			}
			return ' '
		}, s)
	}
	sql = sqlBlockComment.ReplaceAllStringFunc(sql, blank)
	return sqlLineComment.ReplaceAllStringFunc(sql, blank)
}

// splitTopLevel splits s on sep outside parentheses and quotes.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// parenBody returns the text inside the parenthesis opening at s[open].
func parenBody(s string, open int) string {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[open+1 : i]
			}
		}
	}
	return s[open+1:]
}

// parseSQLSchema applies the CREATE, ALTER and DROP statements in content.
func parseSQLSchema(set *schemaSet, rel, content string) {
	content = blankComments(content)
	offset := 0
	for _, stmt := range splitTopLevel(content, ';') {
		start := offset + (len(stmt) - len(strings.TrimLeft(stmt, " \t\r\n")))
		offset += len(stmt) + 1
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		applyStatement(set, rel, lineAt(content, start), stmt)
	}
}

func applyStatement(set *schemaSet, rel string, line int, stmt string) {
	if m := createTableRe.FindStringSubmatchIndex(stmt); m != nil {
		t := &Table{Name: unquote(stmt[m[2]:m[3]]), Source: rel, Line: line}
		for _, item := range splitTopLevel(parenBody(stmt, m[1]-1), ',') {
			applyTableItem(t, strings.TrimSpace(item))
		}
		set.put(t)
		return
	}

	if m := createIndexRe.FindStringSubmatchIndex(stmt); m != nil {
		t := set.get(unquote(stmt[m[6]:m[7]]))
		if t == nil {
			return
		}
		idx := Index{Unique: m[2] >= 0, Columns: identList(parenBody(stmt, m[1]-1))}
		if m[4] >= 0 {
			idx.Name = unquote(stmt[m[4]:m[5]])
		}
		t.Indexes = append(t.Indexes, idx)
		return
	}

	if m := alterTableRe.FindStringSubmatch(stmt); m != nil {
		t := set.get(unquote(m[1]))
		if t == nil {
			return
		}
		for _, action := range splitTopLevel(m[2], ',') {
			if a := addActionRe.FindStringSubmatch(strings.TrimSpace(action)); a != nil {
				applyTableItem(t, strings.TrimSpace(a[1]))
			}
		}
		return
	}

	if m := dropTableRe.FindStringSubmatch(stmt); m != nil {
		set.drop(unquote(m[1]))
	}
}

// applyTableItem applies one element of a CREATE TABLE body or an ALTER
// TABLE ADD action.
func applyTableItem(t *Table, item string) {
	item = constraintRe.ReplaceAllString(item, "")
	switch {
	case item == "" || skipItemRe.MatchString(item):
	case tablePKRe.MatchString(item):
		t.PrimaryKey = identList(tablePKRe.FindStringSubmatch(item)[1])
	case tableFKRe.MatchString(item):
		m := tableFKRe.FindStringSubmatch(item)
		fk := ForeignKey{Columns: identList(m[1])}
		if r := referencesRe.FindStringSubmatch(item); r != nil {
			fk.RefTable = unquote(r[1])
			fk.RefColumns = identList(r[2])
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	case tableUniqueRe.MatchString(item):
		m := tableUniqueRe.FindStringSubmatch(item)
		t.Indexes = append(t.Indexes, Index{Name: unquote(m[1]), Columns: identList(m[2]), Unique: true})
	case tableKeyRe.MatchString(item):
		m := tableKeyRe.FindStringSubmatch(item)
		t.Indexes = append(t.Indexes, Index{Name: unquote(m[1]), Columns: identList(m[2])})
	default:
		m := columnDefRe.FindStringSubmatch(item)
		if m == nil {
			return
		}
		name := unquote(m[1])
		t.addColumn(Column{Name: name, Type: strings.ToLower(m[2])})
		rest := item[len(m[0]):]
		if inlinePKRe.MatchString(rest) {
			t.PrimaryKey = []string{name}
		}
		if inlineUniqueRe.MatchString(rest) {
			t.Indexes = append(t.Indexes, Index{Columns: []string{name}, Unique: true})
		}
		if r := referencesRe.FindStringSubmatch(rest); r != nil {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Columns:    []string{name},
				RefTable:   unquote(r[1]),
				RefColumns: identList(r[2]),
			})
		}
	}
}

// Prisma.

var (
	prismaModelRe    = regexp.MustCompile(`^\s*model\s+(\w+)\s*\{`)
	prismaFieldRe    = regexp.MustCompile(`^\s*(\w+)\s+(\w+)(\[\]|\?)?(.*)$`)
	prismaMapRe      = regexp.MustCompile(`@map\(\s*"([^"]+)"\s*\)`)
	prismaTableMapRe = regexp.MustCompile(`@@map\(\s*"([^"]+)"\s*\)`)
	prismaListRe     = regexp.MustCompile(`^\s*@@(id|index|unique)\(\s*(?:fields:\s*)?\[([^\]]*)\]`)
	prismaRelationRe = regexp.MustCompile(`@relation\([^)]*fields:\s*\[([^\]]*)\](?:[^)]*references:\s*\[([^\]]*)\])?`)
)

func parsePrisma(set *schemaSet, rel, content string) {
	lines := strings.Split(content, "\n")

	models := make(map[string]bool)
	for _, line := range lines {
		if m := prismaModelRe.FindStringSubmatch(line); m != nil {
			models[m[1]] = true
		}
	}

	var t *Table
	// columns maps Prisma field names to their database column names.
	var columns map[string]string
	col := func(field string) string {
		if c, ok := columns[strings.TrimSpace(field)]; ok {
			return c
		}
		return strings.TrimSpace(field)
	}
	fieldList := func(s string) []string {
		out := fieldNames(s)
		for i, f := range out {
			out[i] = col(f)
		}
		return out
	}

	for i, line := range lines {
		if m := prismaModelRe.FindStringSubmatch(line); m != nil {
			t = &Table{Name: m[1], Source: rel, Line: i + 1}
			columns = make(map[string]string)
			continue
		}
		if t == nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "}") {
			// Relations may name fields declared below them.
			for i := range t.ForeignKeys {
				for j, f := range t.ForeignKeys[i].Columns {
					t.ForeignKeys[i].Columns[j] = col(f)
				}
			}
			set.put(t)
			t = nil
			continue
		}

		if m := prismaTableMapRe.FindStringSubmatch(trimmed); m != nil {
			t.Name = m[1]
			continue
		}
		if m := prismaListRe.FindStringSubmatch(trimmed); m != nil {
			cols := fieldList(m[2])
			switch m[1] {
			case "id":
				t.PrimaryKey = cols
			case "index":
				t.Indexes = append(t.Indexes, Index{Columns: cols})
			case "unique":
				t.Indexes = append(t.Indexes, Index{Columns: cols, Unique: true})
			}
			continue
		}

		m := prismaFieldRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "@@") {
			continue
		}
		field, typ, attrs := m[1], m[2], m[4]
		if r := prismaRelationRe.FindStringSubmatch(attrs); r != nil {
			fk := ForeignKey{Columns: fieldNames(r[1]), RefTable: typ}
			if r[2] != "" {
				fk.RefColumns = fieldNames(r[2])
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		if models[typ] || m[3] == "[]" {
			continue
		}

		name := field
		if mm := prismaMapRe.FindStringSubmatch(attrs); mm != nil {
			name = mm[1]
		}
		columns[field] = name
		t.addColumn(Column{Name: name, Type: strings.ToLower(typ)})
		if strings.Contains(attrs, "@id") {
			t.PrimaryKey = []string{name}
		}
		if strings.Contains(attrs, "@unique") {
			t.Indexes = append(t.Indexes, Index{Columns: []string{name}, Unique: true})
		}
	}
}

// fieldNames splits a Prisma field list such as "a, b(sort: Desc)".
func fieldNames(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if i := strings.IndexAny(f, "( "); i >= 0 {
			f = f[:i]
		}
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// TypeORM.

var (
	typeormEntityRe   = regexp.MustCompile(`@Entity\(\s*(?:['"]([^'"]+)['"]|\{[^}]*name:\s*['"]([^'"]+)['"][^}]*\})?\s*\)`)
	typeormClassRe    = regexp.MustCompile(`class\s+(\w+)`)
	typeormPropRe     = regexp.MustCompile(`^\s*(?:readonly\s+)?(\w+)[!?]?\s*:\s*(\w[\w\[\]<>| ]*)`)
	typeormDecorRe    = regexp.MustCompile(`^\s*@(\w+)\((.*)`)
	typeormClassIdxRe = regexp.MustCompile(`@(Index|Unique)\(\s*(?:['"][^'"]*['"]\s*,\s*)?\[([^\]]*)\]`)
	typeormJoinRe     = regexp.MustCompile(`@JoinColumn\(\s*\{[^}]*name:\s*['"]([^'"]+)['"]`)
	typeormColNameRe  = regexp.MustCompile(`name:\s*['"]([^'"]+)['"]`)
)

func parseTypeORM(set *schemaSet, rel, content string) {
	lines := strings.Split(content, "\n")
	var t *Table
	var pending []string
	var entityName string
	var classIndexes [][]string
	var classUnique []bool
	entitySeen := false

	for i, line := range lines {
		if m := typeormEntityRe.FindStringSubmatch(line); m != nil {
			entitySeen = true
			entityName = m[1] + m[2]
			continue
		}
		if m := typeormClassIdxRe.FindStringSubmatch(line); m != nil && t == nil {
			classIndexes = append(classIndexes, strings.Split(m[2], ","))
			classUnique = append(classUnique, m[1] == "Unique")
			continue
		}
		if m := typeormClassRe.FindStringSubmatch(line); m != nil && entitySeen && t == nil {
			name := entityName
			if name == "" {
				name = strings.ToLower(m[1])
			}
			t = &Table{Name: name, Source: rel, Line: i + 1}
			for n, cols := range classIndexes {
				var idx Index
				for _, c := range cols {
					if c = strings.Trim(strings.TrimSpace(c), `'"`); c != "" {
						idx.Columns = append(idx.Columns, c)
					}
				}
				idx.Unique = classUnique[n]
				t.Indexes = append(t.Indexes, idx)
			}
			continue
		}
		if t == nil {
			continue
		}

		if typeormDecorRe.MatchString(line) {
			pending = append(pending, strings.TrimSpace(line))
			continue
		}
		m := typeormPropRe.FindStringSubmatch(line)
		if m == nil || len(pending) == 0 {
			continue
		}
		applyTypeORMProperty(t, m[1], strings.TrimSpace(m[2]), pending)
		pending = nil
	}
	if t != nil {
		set.put(t)
	}
}

func applyTypeORMProperty(t *Table, prop, typ string, decorators []string) {
	for _, d := range decorators {
		name := typeormDecorRe.FindStringSubmatch(d)[1]
		switch name {
		case "ManyToOne", "OneToOne":
			col := prop + "Id"
			for _, j := range decorators {
				if m := typeormJoinRe.FindStringSubmatch(j); m != nil {
					col = m[1]
				}
			}
			if slices.ContainsFunc(decorators, func(s string) bool { return strings.HasPrefix(s, "@JoinColumn") }) || name == "ManyToOne" {
				t.addColumn(Column{Name: col})
				t.ForeignKeys = append(t.ForeignKeys, ForeignKey{Columns: []string{col}, RefTable: strings.ToLower(typ)})
			}
			return
		case "OneToMany", "ManyToMany":
			return
		}
	}

	col := prop
	for _, d := range decorators {
		if strings.HasPrefix(d, "@Column") || strings.HasPrefix(d, "@Primary") {
			if m := typeormColNameRe.FindStringSubmatch(d); m != nil {
				col = m[1]
			}
		}
	}

	isColumn := false
	for _, d := range decorators {
		switch name := typeormDecorRe.FindStringSubmatch(d)[1]; name {
		case "PrimaryGeneratedColumn", "PrimaryColumn", "ObjectIdColumn":
			t.PrimaryKey = []string{col}
			isColumn = true
		case "Column", "CreateDateColumn", "UpdateDateColumn", "DeleteDateColumn", "VersionColumn":
			isColumn = true
			if strings.Contains(d, "unique: true") {
				t.Indexes = append(t.Indexes, Index{Columns: []string{col}, Unique: true})
			}
		case "Index":
			t.Indexes = append(t.Indexes, Index{Columns: []string{col}, Unique: strings.Contains(d, "unique: true")})
		}
	}
	if isColumn {
		t.addColumn(Column{Name: col, Type: strings.ToLower(typ)})
	}
}

// SQLAlchemy.

var (
	pyClassRe      = regexp.MustCompile(`^(\s*)class\s+(\w+)\s*\(`)
	pyTablenameRe  = regexp.MustCompile(`^\s*__tablename__\s*=\s*['"]([^'"]+)['"]`)
	pyColumnRe     = regexp.MustCompile(`^\s*(\w+)\s*(?::\s*Mapped\[[^\]]*\]+)?\s*=\s*(?:\w+\.)?(?:Column|mapped_column)\((.*)$`)
	pyColNameRe    = regexp.MustCompile(`^\s*['"](\w+)['"]`)
	pyForeignKeyRe = regexp.MustCompile(`ForeignKey\(\s*['"](\w+)\.(\w+)['"]`)
	pyTypeRe       = regexp.MustCompile(`^\s*(?:['"]\w+['"]\s*,\s*)?(?:\w+\.)?(\w+)`)
	pyIndexRe      = regexp.MustCompile(`\b(Index|UniqueConstraint)\(([^)]*)\)`)
	pyQuotedRe     = regexp.MustCompile(`['"](\w+)['"]`)
)

func parseSQLAlchemy(set *schemaSet, rel, content string) {
	lines := strings.Split(content, "\n")
	var t *Table
	classIndent := -1
	classLine := 0
	flush := func() {
		if t != nil && t.Name != "" {
			set.put(t)
		}
		t = nil
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			flush()
			classIndent = len(m[1])
			classLine = i + 1
			t = &Table{Source: rel, Line: classLine}
			continue
		}
		if t == nil {
			continue
		}
		if leadingSpace(line) <= classIndent {
			flush()
			continue
		}

		if m := pyTablenameRe.FindStringSubmatch(line); m != nil {
			t.Name = m[1]
			continue
		}
		if m := pyColumnRe.FindStringSubmatch(line); m != nil {
			args := m[2]
			name := m[1]
			if n := pyColNameRe.FindStringSubmatch(args); n != nil {
				name = n[1]
			}
			col := Column{Name: name}
			if ty := pyTypeRe.FindStringSubmatch(args); ty != nil && ty[1] != "ForeignKey" {
				col.Type = strings.ToLower(ty[1])
			}
			t.addColumn(col)
			if strings.Contains(args, "primary_key=True") {
				t.PrimaryKey = append(t.PrimaryKey, name)
			}
			if strings.Contains(args, "index=True") || strings.Contains(args, "unique=True") {
				t.Indexes = append(t.Indexes, Index{Columns: []string{name}, Unique: strings.Contains(args, "unique=True")})
			}
			if fk := pyForeignKeyRe.FindStringSubmatch(args); fk != nil {
				t.ForeignKeys = append(t.ForeignKeys, ForeignKey{Columns: []string{name}, RefTable: fk[1], RefColumns: []string{fk[2]}})
			}
			continue
		}
		for _, m := range pyIndexRe.FindAllStringSubmatch(line, -1) {
			var cols []string
			for _, q := range pyQuotedRe.FindAllStringSubmatch(m[2], -1) {
				cols = append(cols, q[1])
			}
			// Index takes its name first.
			if m[1] == "Index" && len(cols) > 0 {
				cols = cols[1:]
			}
			if len(cols) > 0 {
				t.Indexes = append(t.Indexes, Index{Columns: cols, Unique: m[1] == "UniqueConstraint"})
			}
		}
	}
	flush()
}
