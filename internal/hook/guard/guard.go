// Package guard decides whether a tool call may touch a file, by matching
// the file path against deny and allow regexes.
package guard

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/hook"
)

// DefaultDeny lists the path patterns blocked out of the box: env files,
// secrets files, key material, VCS internals and cloud credentials.
var DefaultDeny = []string{
	`\.env$`,
	`(^|/)\.env\.[^/]+$`,
	`secrets?\.toml$`,
	`(^|/)secrets?(\.(json|ya?ml|toml|env|ini|txt))?$`,
	`\.pem$`,
	`\.key$`,
	`\.p12$`,
	`\.pfx$`,
	`(^|/)id_(rsa|dsa|ecdsa|ed25519)$`,
	`(^|/)credentials(\.json)?$`,
	`(^|/)\.git/`,
	`(^|/)\.aws/`,
	`(^|/)\.ssh/`,
}

// DefaultAllow lists patterns that override a deny match: committed env templates.
var DefaultAllow = []string{
	`\.env\.(example|sample|template|dist)$`,
}

// Verdict is the outcome of checking one path.
type Verdict struct {
	Decision hook.Decision
	Path     string
	// Pattern is the deny pattern that matched, empty when allowed.
	Pattern string
}

// Reason returns the message shown to the model when the path is blocked.
func (v Verdict) Reason() string {
	if v.Decision != hook.Block {
		return ""
	}
	return fmt.Sprintf("Refusing to modify protected file %s (matched %s). "+
		"Ask the user to edit it manually or set CLAUDE_HOOKS_DISABLED=1 to bypass.", v.Path, v.Pattern)
}

// Guard matches paths against compiled deny and allow lists.
type Guard struct {
	deny  []*regexp.Regexp
	allow []*regexp.Regexp
}

// New builds a Guard from the defaults plus cfg. With cfg.NoDefaults only the
// configured patterns are used.
func New(cfg config.GuardConfig) (*Guard, error) {
	var deny, allow []string
	if !cfg.NoDefaults {
		deny = append(deny, DefaultDeny...)
		allow = append(allow, DefaultAllow...)
	}
	deny = append(deny, cfg.Deny...)
	allow = append(allow, cfg.Allow...)

	g := &Guard{}
	var err error
	if g.deny, err = compile(deny); err != nil {
		return nil, errors.Wrap(err, "compiling deny patterns")
	}
	if g.allow, err = compile(allow); err != nil {
		return nil, errors.Wrap(err, "compiling allow patterns")
	}
	return g, nil
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		res = append(res, re)
	}
	return res, nil
}

// Check returns the verdict for path. Separators are normalised to '/' before
// matching. An empty path is allowed.
func (g *Guard) Check(path string) Verdict {
	v := Verdict{Decision: hook.Allow, Path: path}
	if path == "" {
		return v
	}

	normalized := strings.ReplaceAll(filepath.ToSlash(filepath.Clean(path)), `\`, "/")

	for _, re := range g.deny {
		if !re.MatchString(normalized) {
			continue
		}
		for _, a := range g.allow {
			if a.MatchString(normalized) {
				return v
			}
		}
		v.Decision = hook.Block
		v.Pattern = re.String()
		return v
	}
	return v
}
