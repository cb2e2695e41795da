package docs

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// DefaultAuthor is written for {AUTHOR} when no author is configured.
const DefaultAuthor = "Claude (AI Assistant)"

// ErrOutputExists is returned by Generate when the output file exists and
// overwriting was not requested.
var ErrOutputExists = errors.New("output file already exists")

// Generator fills document templates.
type Generator struct {
	TemplateDir string
	Author      string
	// Now defaults to time.Now.
	Now func() time.Time
}

// GenerateOptions controls a single Generate call.
type GenerateOptions struct {
	Vars  map[string]string
	Force bool
}

// Generate renders templateName into output and returns the output path.
// {DATE}, {TIMESTAMP} and {AUTHOR} are always available; user variables
// with the same name take precedence.
func (g *Generator) Generate(templateName, output string, opts GenerateOptions) (string, error) {
	tmplPath := templateName
	if !filepath.IsAbs(tmplPath) {
		tmplPath = filepath.Join(g.TemplateDir, templateName)
	}
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		return "", errors.Newf("template not found: %s", tmplPath)
	}
	data, err := fileutil.ReadFileWithLimit(tmplPath)
	if err != nil {
		return "", errors.Wrap(err, "reading template")
	}

	if !opts.Force {
		if _, err := os.Stat(output); err == nil {
			return "", errors.Wrapf(ErrOutputExists, "%s (use --force to overwrite)", output)
		}
	}

	content := g.Render(string(data), opts.Vars)
	if err := fileutil.AtomicWriteFile(output, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", output)
	}
	return output, nil
}

// Render substitutes {KEY} placeholders in tmpl.
func (g *Generator) Render(tmpl string, vars map[string]string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	t := now()

	author := g.Author
	if author == "" {
		author = DefaultAuthor
	}

	values := map[string]string{
		"DATE":      t.Format(time.DateOnly),
		"TIMESTAMP": t.Format("200601021504"),
		"AUTHOR":    author,
	}
	for k, v := range vars {
		values[k] = v
	}

	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// ParseVars turns KEY=VALUE arguments into a variable map.
func ParseVars(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.Newf("invalid variable %q: expected KEY=VALUE", arg)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}
