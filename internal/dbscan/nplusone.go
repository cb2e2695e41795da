package dbscan

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// KindNPlusOne is the finding kind reported by DetectNPlusOne.
const KindNPlusOne = "n_plus_one"

var nplusoneExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".py", ".go"}

// DetectNPlusOne flags loops whose bodies issue a query per iteration.
// JavaScript and Python loops are matched textually; Go is parsed.
func DetectNPlusOne(ctx context.Context, root string) ([]Finding, error) {
	findings := []Finding{}
	err := walkSources(ctx, root, hasExt(nplusoneExts...), func(f sourceFile) error {
		findings = append(findings, detectInSource(f.Rel, f.Data)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortFindings(findings)
	return findings, nil
}

func detectInSource(rel string, data []byte) []Finding {
	switch path.Ext(rel) {
	case ".py":
		return detectPython(rel, string(data))
	case ".go":
		return detectGo(rel, data)
	default:
		return detectJS(rel, string(data))
	}
}

var (
	jsLoopRes = []*regexp.Regexp{
		regexp.MustCompile(`\bfor\s*\(\s*(const|let|var)\s+\w+\s+of\s+`),
		regexp.MustCompile(`\.forEach\s*\(`),
		regexp.MustCompile(`\.map\s*\(\s*(async\s*)?\(?[\w\s,]*\)?\s*=>`),
		regexp.MustCompile(`\bfor\s*\([^;)]*;[^;]*\.length\s*;`),
	}

	jsQueryRe = regexp.MustCompile(`await\s+[\w.]+\.(find\w*|get\w+|query|execute)\s*\(|` +
		`\.(findOne|findMany|findById|findUnique|findFirst)\s*\(|\.query\s*\(|\bSELECT\s|session\.query\(`)
)

// detectJS finds query calls inside the brace block following a loop head.
// The block must open on the loop's line or the next.
func detectJS(rel, content string) []Finding {
	lines := strings.Split(content, "\n")
	var out []Finding
	seen := make(map[int]bool)
	for _, re := range jsLoopRes {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			open := strings.IndexByte(content[loc[1]:], '{')
			if open < 0 {
				continue
			}
			open += loc[1]
			if strings.Count(content[loc[0]:open], "\n") > 1 {
				continue
			}
			body := braceBlock(content, open)
			q := jsQueryRe.FindStringIndex(body)
			if q == nil {
				continue
			}

			loopLine := lineAt(content, loc[0])
			if seen[loopLine] {
				continue
			}
			seen[loopLine] = true
			queryLine := lineAt(content, open+q[0])
			out = append(out, nplusone(rel, loopLine, queryLine, lines))
		}
	}
	return out
}

// braceBlock returns the text between content[open] == '{' and its
// matching close, or the rest of content when unbalanced.
func braceBlock(content string, open int) string {
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return content[open+1:]
}

var (
	pyForRe   = regexp.MustCompile(`^(\s*)(async\s+)?for\s+.+\s+in\s+.+:\s*(#.*)?$`)
	pyQueryRe = regexp.MustCompile(`\.(filter|get|all|first|query|execute|fetch|fetchrow|fetchval|find_one|find)\(`)
)

// detectPython walks indentation-delimited for bodies.
func detectPython(rel, content string) []Finding {
	lines := strings.Split(content, "\n")
	var out []Finding
	for i, line := range lines {
		m := pyForRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent := len(m[1])
		for j := i + 1; j < len(lines); j++ {
			body := lines[j]
			if strings.TrimSpace(body) == "" {
				continue
			}
			if leadingSpace(body) <= indent {
				break
			}
			if pyQueryRe.MatchString(body) {
				out = append(out, nplusone(rel, i+1, j+1, lines))
				break
			}
		}
	}
	return out
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// goQueryMethods are the database/sql, sqlx and gorm calls that hit the
// database.
var goQueryMethods = map[string]bool{
	"Query":           true,
	"QueryRow":        true,
	"QueryContext":    true,
	"QueryRowContext": true,
	"Exec":            true,
	"ExecContext":     true,
	"Get":             true,
	"GetContext":      true,
	"Select":          true,
	"SelectContext":   true,
	"Find":            true,
	"First":           true,
}

// detectGo parses the file and reports for and range statements whose body
// calls a query method. Files that do not parse are skipped.
func detectGo(rel string, data []byte) []Finding {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, rel, data, parser.SkipObjectResolution)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")

	var out []Finding
	ast.Inspect(file, func(n ast.Node) bool {
		var body *ast.BlockStmt
		switch loop := n.(type) {
		case *ast.ForStmt:
			body = loop.Body
		case *ast.RangeStmt:
			body = loop.Body
		default:
			return true
		}

		var call *ast.CallExpr
		ast.Inspect(body, func(n ast.Node) bool {
			if call != nil {
				return false
			}
			c, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if sel, ok := c.Fun.(*ast.SelectorExpr); ok && goQueryMethods[sel.Sel.Name] {
				call = c
				return false
			}
			return true
		})
		if call != nil {
			out = append(out, nplusone(rel, fset.Position(n.Pos()).Line, fset.Position(call.Pos()).Line, lines))
			// Nested loops would report the same call again.
			return false
		}
		return true
	})
	return out
}

func nplusone(rel string, loopLine, queryLine int, lines []string) Finding {
	return Finding{
		Severity: SeverityHigh,
		Kind:     KindNPlusOne,
		File:     rel,
		Line:     loopLine,
		Message: "query inside loop (line " + strconv.Itoa(queryLine) + "): " +
			Truncate(strings.TrimSpace(lineText(lines, queryLine)), 80),
		Suggestion: "Load the rows in one query before the loop, with a JOIN, an IN list or the ORM's eager loading",
		Context:    contextLines(lines, loopLine, 0, queryLine-loopLine),
	}
}

func lineText(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}
