package lint

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/thoreinstein/plugkit/internal/config"
)

// cargoManifest holds the parts of Cargo.toml used to decide whether a
// directory is a crate or workspace root.
type cargoManifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// Tools lists the executables each enabled language may invoke. A
// project-local eslint is preferred at run time but not listed here.
func Tools(cfg config.LintConfig) map[Language][]string {
	tools := map[Language][]string{
		Python:     {"ruff"},
		Rust:       {"rustfmt", "cargo"},
		JavaScript: {"eslint"},
	}
	if cfg.Security {
		tools[Python] = append(tools[Python], "bandit")
	}
	for lang := range tools {
		if !cfg.LanguageEnabled(string(lang)) {
			delete(tools, lang)
		}
	}
	return tools
}

// plan returns the commands to run for file, before tool lookup.
func (d *Dispatcher) plan(lang Language, file string) []Command {
	switch lang {
	case Python:
		return d.pythonPlan(file)
	case Rust:
		return d.rustPlan(file)
	case JavaScript:
		return d.javascriptPlan(file)
	default:
		return nil
	}
}

func (d *Dispatcher) pythonPlan(file string) []Command {
	dir := filepath.Dir(file)
	cmds := []Command{
		{Tool: "ruff format", Name: "ruff", Args: []string{"format", file}, Dir: dir},
		{Tool: "ruff check", Name: "ruff", Args: []string{"check", "--fix", file}, Dir: dir},
	}
	if d.cfg.Security {
		cmds = append(cmds, Command{Tool: "bandit", Name: "bandit", Args: []string{"-q", "-ll", file}, Dir: dir})
	}
	return cmds
}

func (d *Dispatcher) rustPlan(file string) []Command {
	crate, ok := d.findCrate(filepath.Dir(file))
	if !ok {
		return []Command{
			{Tool: "rustfmt", Name: "rustfmt", Args: []string{file}, Dir: filepath.Dir(file)},
		}
	}
	return []Command{
		{Tool: "cargo fmt", Name: "cargo", Args: []string{"fmt"}, Dir: crate},
		{Tool: "cargo clippy", Name: "cargo", Args: []string{"clippy", "--quiet", "--message-format=short"}, Dir: crate},
	}
}

func (d *Dispatcher) javascriptPlan(file string) []Command {
	name := "eslint"
	dir := filepath.Dir(file)
	if root, ok := findUp(dir, "package.json"); ok {
		dir = root
		local := filepath.Join(root, "node_modules", ".bin", "eslint")
		if isExecutable(local) {
			name = local
		}
	}
	return []Command{
		{Tool: "eslint", Name: name, Args: []string{"--fix", file}, Dir: dir},
	}
}

// findCrate walks up from dir to the nearest Cargo.toml that declares a
// package or workspace, returning its directory.
func (d *Dispatcher) findCrate(dir string) (string, bool) {
	for {
		root, ok := findUp(dir, "Cargo.toml")
		if !ok {
			return "", false
		}

		manifest := filepath.Join(root, "Cargo.toml")
		data, err := os.ReadFile(manifest)
		if err == nil {
			var m cargoManifest
			if err := toml.Unmarshal(data, &m); err != nil {
				d.logger.Debug("ignoring unparsable cargo manifest", "path", manifest, "error", err)
			} else if m.Package != nil || m.Workspace != nil {
				return root, true
			}
		}

		parent := filepath.Dir(root)
		if parent == root {
			return "", false
		}
		dir = parent
	}
}

// findUp returns the first directory at or above dir that contains name.
func findUp(dir, name string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
