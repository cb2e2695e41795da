// Package frontmatter parses and writes the YAML frontmatter of markdown
// files such as SKILL.md and agent definitions.
//
// Frontmatter is delimited by lines containing only "---". The YAML between
// the delimiters is unmarshaled into the caller's type; the rest of the file
// is returned as the body. LF and CRLF line endings are both accepted.
//
//	var meta struct {
//		Name string `yaml:"name"`
//	}
//	body, err := frontmatter.MustParse(f, &meta)
//	if errors.Is(err, frontmatter.ErrMissingFrontmatter) {
//		// not a skill file
//	}
//
// [Keys] reports the top-level keys in document order so validators can flag
// fields they do not recognise.
package frontmatter
