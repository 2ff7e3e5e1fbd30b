// SPDX-License-Identifier: MPL-2.0

// Package schema derives a command-line flag schema from a pipeline's declared
// input fields. Declaration order is preserved so the generated help text is
// stable across runs.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"clip/pkg/pipeline"
)

var (
	// ErrNoFields is returned when the pipeline declares no input fields.
	// Driving a field-less pipeline through a generated CLI is a misuse of
	// the adapter, not a recoverable condition.
	ErrNoFields = errors.New("pipeline declares no input fields")

	// ErrDuplicateFlag is the sentinel error wrapped by DuplicateFlagError.
	ErrDuplicateFlag = errors.New("duplicate flag name")
)

// DuplicateFlagError is returned when two fields map to the same flag name
// (e.g. "baseDir" and "base_dir" both become --base-dir).
// It wraps ErrDuplicateFlag for errors.Is() compatibility.
type DuplicateFlagError struct {
	Flag   string
	Fields []string
}

func (e *DuplicateFlagError) Error() string {
	return fmt.Sprintf("fields %s map to the same flag --%s",
		strings.Join(e.Fields, " and "), e.Flag)
}

// Unwrap returns ErrDuplicateFlag so callers can use errors.Is.
func (e *DuplicateFlagError) Unwrap() error { return ErrDuplicateFlag }

// Extract validates the pipeline's declared fields and returns them in
// declaration order. Each FieldSpec is checked for internal consistency and
// the derived flag names are checked for pairwise distinctness.
// Extract has no side effects.
func Extract(def pipeline.Definition) ([]pipeline.FieldSpec, error) {
	fields := def.Fields()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	seen := make(map[string]string, len(fields))
	out := make([]pipeline.FieldSpec, 0, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		flag := FlagName(f.Name)
		if prev, dup := seen[flag]; dup {
			return nil, &DuplicateFlagError{Flag: flag, Fields: []string{prev, f.Name}}
		}
		seen[flag] = f.Name
		out = append(out, f)
	}
	return out, nil
}

// FlagName converts a field name to its CLI flag form: camelCase boundaries
// and underscores become hyphens, everything is lowercased.
// "baseDir" -> "base-dir", "n_iters" -> "n-iters", "FWHM" -> "fwhm".
func FlagName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			// Hyphenate at a lower->Upper boundary, or at the last upper of an
			// acronym run ("HTMLOut" -> "html-out").
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
