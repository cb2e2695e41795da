package config

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrUnsupportedVersion indicates a config written for a newer plugkit.
	ErrUnsupportedVersion = errors.New("unsupported config version")

	// ErrInvalidPattern indicates a guard regex that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidLanguage indicates an unknown entry in lint.disabled.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrOutOfRange indicates a numeric or duration field outside its bounds.
	ErrOutOfRange = errors.New("value out of range")
)

// CurrentVersion is the newest config version this build understands.
const CurrentVersion = 1

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	switch {
	case cfg.Version < 1:
		errs = append(errs, ErrVersionTooLow)
	case cfg.Version > CurrentVersion:
		errs = append(errs, &FieldError{Field: "version", Value: cfg.Version, Err: ErrUnsupportedVersion})
	}

	for _, p := range cfg.Guard.Deny {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, &FieldError{Field: "guard.deny", Value: p, Err: ErrInvalidPattern})
		}
	}
	for _, p := range cfg.Guard.Allow {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, &FieldError{Field: "guard.allow", Value: p, Err: ErrInvalidPattern})
		}
	}

	if cfg.Lint.Timeout <= 0 {
		errs = append(errs, &FieldError{Field: "lint.timeout", Value: cfg.Lint.Timeout, Err: ErrOutOfRange})
	}
	if cfg.Lint.MaxOutput <= 0 {
		errs = append(errs, &FieldError{Field: "lint.max_output", Value: cfg.Lint.MaxOutput, Err: ErrOutOfRange})
	}
	for _, lang := range cfg.Lint.Disabled {
		if !slices.Contains(Languages(), lang) {
			errs = append(errs, &FieldError{Field: "lint.disabled", Value: lang, Err: ErrInvalidLanguage})
		}
	}

	if cfg.Suggest.Limit < 1 {
		errs = append(errs, &FieldError{Field: "suggest.limit", Value: cfg.Suggest.Limit, Err: ErrOutOfRange})
	}
	if cfg.Suggest.MinScore < 1 {
		errs = append(errs, &FieldError{Field: "suggest.min_score", Value: cfg.Suggest.MinScore, Err: ErrOutOfRange})
	}

	if cfg.DB.SlowQuery <= 0 {
		errs = append(errs, &FieldError{Field: "db.slow_query", Value: cfg.DB.SlowQuery, Err: ErrOutOfRange})
	}
	if cfg.DB.MaxExplain < 1 {
		errs = append(errs, &FieldError{Field: "db.max_explain", Value: cfg.DB.MaxExplain, Err: ErrOutOfRange})
	}
	if cfg.DB.SampleKeys < 1 {
		errs = append(errs, &FieldError{Field: "db.sample_keys", Value: cfg.DB.SampleKeys, Err: ErrOutOfRange})
	}

	return errs
}

// FieldError represents an invalid value for a specific field.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
