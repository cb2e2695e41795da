// Package toolperm parses tool permission lists such as
// "Read Grep Bash(git diff:*)".
//
// A permission is a PascalCase tool name with an optional parenthesised
// scope. Skills separate permissions with whitespace; agents also accept
// commas. Delimiters inside a scope do not split it.
package toolperm

import (
	"regexp"
	"strings"
)

// Permission represents a parsed tool permission.
type Permission struct {
	// Name is the tool name, e.g. "Read" or "Bash".
	Name string
	// Scope is the text between the parentheses, e.g. "git:*". Empty when absent.
	Scope string
}

// String returns the permission in its canonical string form.
func (p Permission) String() string {
	if p.Scope == "" {
		return p.Name
	}
	return p.Name + "(" + p.Scope + ")"
}

// Captures: group 1 = tool name, group 2 = scope without parens.
var toolRegex = regexp.MustCompile(`^([A-Z][a-zA-Z0-9]*)(?:\(([^)]+)\))?$`)

// Delimiters accepted by Split.
const (
	Spaces         = " \t\n"
	SpacesOrCommas = " \t\n,"
)

// Split breaks s into permission tokens on any rune in delims, keeping
// parenthesised scopes intact. Empty tokens are dropped.
func Split(s, delims string) []string {
	var (
		tokens []string
		cur    strings.Builder
		depth  int
	)
	flush := func() {
		if tok := strings.TrimSpace(cur.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		cur.Reset()
	}

	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0 && strings.ContainsRune(delims, r):
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

// Parse parses every token, stopping at the first invalid one.
// It returns an empty slice for no tokens.
func Parse(tokens []string) ([]Permission, error) {
	perms := make([]Permission, 0, len(tokens))
	for _, tok := range tokens {
		p, err := ParseSingle(tok)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// ParseSingle parses a single tool permission token.
func ParseSingle(token string) (Permission, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Permission{}, &Error{Token: token, Message: "empty tool permission"}
	}

	matches := toolRegex.FindStringSubmatch(token)
	if matches == nil {
		msg := "tool name must be PascalCase, optionally followed by a scope, e.g. Read or Bash(git:*)"
		if strings.HasSuffix(token, ",") {
			msg = "tools must be separated by spaces, not commas"
		}
		return Permission{}, &Error{Token: token, Message: msg}
	}

	return Permission{Name: matches[1], Scope: matches[2]}, nil
}

// Format joins permissions with single spaces.
func Format(perms []Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}
