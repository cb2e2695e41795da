// Package frontmatter provides utilities for parsing and formatting
// YAML frontmatter in markdown files.
package frontmatter

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by the parsers.
var (
	// ErrMissingFrontmatter is returned by MustParse when no frontmatter is found.
	ErrMissingFrontmatter = errors.New("missing frontmatter")

	// ErrUnclosedFrontmatter is returned when the opening delimiter has no closing one.
	ErrUnclosedFrontmatter = errors.New("missing closing frontmatter delimiter")
)

const delimiter = "---"

// Split separates raw frontmatter from the body.
// found is false when content does not start with a "---" line; in that case
// body is the whole content. CRLF line endings are accepted.
func Split(content []byte) (matter, body []byte, found bool, err error) {
	first, rest, ok := cutLine(content)
	if !ok && len(first) == 0 {
		return nil, content, false, nil
	}
	if string(trimCR(first)) != delimiter {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	pos := start
	for pos <= len(content) {
		line, next, more := cutLine(content[pos:])
		if string(trimCR(line)) == delimiter {
			return content[start:pos], next, true, nil
		}
		if !more {
			break
		}
		pos = len(content) - len(next)
	}
	return nil, nil, true, ErrUnclosedFrontmatter
}

// cutLine returns the first line of b without its '\n' and the remainder.
// more is false when b contained no newline.
func cutLine(b []byte) (line, rest []byte, more bool) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], b[i+1:], true
	}
	return b, nil, false
}

func trimCR(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte("\r"))
}

// Parse extracts YAML frontmatter into matter and returns the body.
// Content without frontmatter is returned whole with matter untouched.
// Agents use this: their frontmatter is optional.
func Parse[T any](r io.Reader, matter *T) ([]byte, error) {
	return parse(r, matter, false)
}

// MustParse is like Parse but returns ErrMissingFrontmatter when none is present.
// Skills use this: their frontmatter is required.
func MustParse[T any](r io.Reader, matter *T) ([]byte, error) {
	return parse(r, matter, true)
}

func parse[T any](r io.Reader, matter *T, required bool) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fm, body, found, err := Split(content)
	if err != nil {
		return nil, err
	}
	if !found {
		if required {
			return nil, ErrMissingFrontmatter
		}
		return content, nil
	}

	if err := yaml.Unmarshal(fm, matter); err != nil {
		return nil, err
	}
	return body, nil
}

// Keys returns the top-level frontmatter keys in document order.
// It returns nil when content has no frontmatter.
func Keys(content []byte) ([]string, error) {
	fm, _, found, err := Split(content)
	if err != nil || !found {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(fm, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}

	mapping := doc.Content[0]
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

// Format formats content with YAML frontmatter.
// The matter struct is serialized to YAML and wrapped in "---" delimiters,
// followed by a blank line and the body content.
func Format(matter any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(matter); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.WriteString(delimiter + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}
