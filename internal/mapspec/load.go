package mapspec

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/validator"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// Format is a map spec encoding.
type Format string

// Supported encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension. Anything other
// than .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a spec, ignoring unknown fields.
func Parse(data []byte, format Format) (*Spec, error) {
	return decode(data, format, false)
}

// Load reads and decodes the spec at path.
func Load(path string) (*Spec, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading map spec %s", path)
	}
	spec, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing map spec %s", path)
	}
	return spec, nil
}

// CheckFile loads and validates the spec at path. Unknown fields are
// reported as a warning. The error is non-nil only when the file cannot be
// read or decoded at all.
func CheckFile(path string) (*validator.Result, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading map spec %s", path)
	}
	format := FormatFromPath(path)

	spec, strictErr := decode(data, format, true)
	if strictErr != nil {
		spec, err = decode(data, format, false)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing map spec %s", path)
		}
	}

	result := Validate(spec)
	result.Path = path
	if strictErr != nil {
		result.AddWarning("", "document has fields outside the schema: "+strictErr.Error(), nil)
	}
	return result, nil
}

func decode(data []byte, format Format, strict bool) (*Spec, error) {
	var spec Spec
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&spec); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&spec); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}
