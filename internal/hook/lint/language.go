package lint

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/plugkit/internal/config"
)

// Language identifies which toolchain handles a file.
type Language string

// Supported languages. Values match the names accepted in lint.disabled.
const (
	Python     Language = config.LangPython
	Rust       Language = config.LangRust
	JavaScript Language = config.LangJavaScript
)

var extensions = map[string]Language{
	".py":  Python,
	".pyi": Python,
	".rs":  Rust,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".ts":  JavaScript,
	".tsx": JavaScript,
	".mts": JavaScript,
	".cts": JavaScript,
}

// Detect returns the language for path based on its extension.
func Detect(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
