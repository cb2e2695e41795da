package plugin

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// skipDirs are never descended into while scanning.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	".venv":        true,
	"__pycache__":  true,
}

// Entry is one discovered artifact. Exactly one of Skill, Agent or Manifest
// is set unless Err is non-nil.
type Entry struct {
	Kind Kind
	// Root is the scan root the entry was found under.
	Root     string
	Path     string
	Skill    *Skill
	Agent    *Agent
	Manifest *Manifest
	Err      error
}

// Name returns the artifact's declared name, falling back to its location.
func (e Entry) Name() string {
	switch {
	case e.Skill != nil && e.Skill.Name != "":
		return e.Skill.Name
	case e.Agent != nil && e.Agent.Name != "":
		return e.Agent.Name
	case e.Manifest != nil && e.Manifest.Name != "":
		return e.Manifest.Name
	case e.Kind == KindSkill:
		return filepath.Base(filepath.Dir(e.Path))
	case e.Kind == KindAgent:
		return AgentNameFromPath(e.Path)
	default:
		return filepath.Base(filepath.Dir(filepath.Dir(e.Path)))
	}
}

// Catalog is the result of a scan, sorted by kind, then name, then path.
type Catalog struct {
	Entries []Entry
}

// Skills returns the skill entries that parsed.
func (c *Catalog) Skills() []*Skill {
	var out []*Skill
	for _, e := range c.Entries {
		if e.Skill != nil {
			out = append(out, e.Skill)
		}
	}
	return out
}

// Agents returns the agent entries that parsed.
func (c *Catalog) Agents() []*Agent {
	var out []*Agent
	for _, e := range c.Entries {
		if e.Agent != nil {
			out = append(out, e.Agent)
		}
	}
	return out
}

// Manifests returns the manifest entries that parsed.
func (c *Catalog) Manifests() []*Manifest {
	var out []*Manifest
	for _, e := range c.Entries {
		if e.Manifest != nil {
			out = append(out, e.Manifest)
		}
	}
	return out
}

// Filter returns the entries of kind k.
func (c *Catalog) Filter(k Kind) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Failed returns the entries that could not be parsed.
func (c *Catalog) Failed() []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// Scanner discovers skills, agents and manifests below plugin roots.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a Scanner. A nil logger discards output.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Scanner{logger: logger}
}

// Scan walks every root concurrently, with at most GOMAXPROCS walkers.
// Missing roots are skipped. Files that fail to parse are returned as
// entries with Err set; only walk failures and cancellation fail the scan.
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*Catalog, error) {
	var (
		mu      sync.Mutex
		entries []Entry
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, root := range dedupe(roots) {
		g.Go(func() error {
			found, err := s.scanRoot(ctx, root)
			if err != nil {
				return errors.Wrapf(err, "scanning %s", root)
			}
			mu.Lock()
			entries = append(entries, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.Path < b.Path
	})
	return &Catalog{Entries: entries}, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("plugin root does not exist", "root", root)
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", root)
	}

	s.logger.Debug("scanning plugin root", "root", root)

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}

		if e, ok := classify(path); ok {
			e.Root = root
			entries = append(entries, s.load(e))
		}
		return nil
	})
	return entries, err
}

// classify decides whether path is a plugin artifact by its location:
// skills/<name>/SKILL.md, agents/<name>.md or .claude-plugin/plugin.json.
func classify(path string) (Entry, bool) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	switch {
	case base == SkillFileName && filepath.Base(filepath.Dir(dir)) == SkillDirName:
		return Entry{Kind: KindSkill, Path: path}, true
	case filepath.Ext(base) == ".md" && base != "README.md" && filepath.Base(dir) == AgentDirName:
		return Entry{Kind: KindAgent, Path: path}, true
	case base == filepath.Base(ManifestPath) && filepath.Base(dir) == filepath.Dir(ManifestPath):
		return Entry{Kind: KindManifest, Path: path}, true
	default:
		return Entry{}, false
	}
}

func (s *Scanner) load(e Entry) Entry {
	e = Reload(e)
	if e.Err != nil {
		s.logger.Info("failed to parse plugin file", "kind", e.Kind, "path", e.Path, "error", e.Err)
	}
	return e
}

// Reload parses the file behind e again, replacing whatever was loaded.
func Reload(e Entry) Entry {
	e.Skill, e.Agent, e.Manifest, e.Err = nil, nil, nil, nil
	switch e.Kind {
	case KindSkill:
		e.Skill, e.Err = ParseSkillFile(e.Path)
	case KindAgent:
		e.Agent, e.Err = ParseAgentFile(e.Path)
	case KindManifest:
		e.Manifest, e.Err = ParseManifestFile(e.Path)
	}
	return e
}

func dedupe(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		clean := filepath.Clean(r)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
