// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// TypeString is a free-form string field.
	TypeString FieldType = "string"
	// TypeNumber is a numeric field, represented as float64 after parsing.
	TypeNumber FieldType = "number"
	// TypeBool is a boolean field.
	TypeBool FieldType = "bool"
	// TypePath is a filesystem path field. Parsed as a string and cleaned;
	// existence is not checked at parse time.
	TypePath FieldType = "path"
	// TypeEnum is a string field restricted to a fixed set of choices.
	TypeEnum FieldType = "enum"
)

var (
	// ErrInvalidFieldType is the sentinel error wrapped by InvalidFieldTypeError.
	ErrInvalidFieldType = errors.New("invalid field type")
	// ErrInvalidFieldSpec is the sentinel error wrapped by InvalidFieldSpecError.
	ErrInvalidFieldSpec = errors.New("invalid field spec")
)

type (
	// FieldType classifies a pipeline input field for CLI parsing.
	FieldType string

	// InvalidFieldTypeError is returned when a FieldType value is not recognized.
	// It wraps ErrInvalidFieldType for errors.Is() compatibility.
	InvalidFieldTypeError struct {
		Value FieldType
	}

	// FieldSpec describes one pipeline input field's CLI-facing shape.
	// It is derived read-only from a Definition and immutable afterward.
	FieldSpec struct {
		// Name is the field name as declared by the pipeline.
		Name string

		// Type classifies the field for parsing and conversion.
		Type FieldType

		// Required marks fields that must receive a value before binding.
		Required bool

		// Default is the pipeline-declared default value, or nil.
		// When non-nil its dynamic type must match Type.
		Default any

		// Choices lists the permitted values for TypeEnum fields.
		Choices []string

		// Help is the flag usage text shown in --help output.
		Help string
	}

	// InvalidFieldSpecError is returned when a FieldSpec is internally
	// inconsistent. It wraps ErrInvalidFieldSpec for errors.Is() compatibility.
	InvalidFieldSpecError struct {
		Field  string
		Reason string
	}
)

func (e *InvalidFieldTypeError) Error() string {
	return fmt.Sprintf("invalid field type %q (valid: %s, %s, %s, %s, %s)",
		e.Value, TypeString, TypeNumber, TypeBool, TypePath, TypeEnum)
}

// Unwrap returns ErrInvalidFieldType so callers can use errors.Is.
func (e *InvalidFieldTypeError) Unwrap() error { return ErrInvalidFieldType }

func (e *InvalidFieldSpecError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidFieldSpec so callers can use errors.Is.
func (e *InvalidFieldSpecError) Unwrap() error { return ErrInvalidFieldSpec }

// Validate checks that the FieldType is one of the recognized values.
func (t FieldType) Validate() error {
	switch t {
	case TypeString, TypeNumber, TypeBool, TypePath, TypeEnum:
		return nil
	default:
		return &InvalidFieldTypeError{Value: t}
	}
}

// Validate checks the FieldSpec for internal consistency: a non-empty name,
// a recognized type, choices present exactly when the type is enum, and a
// default whose dynamic type matches the declared type.
func (s FieldSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &InvalidFieldSpecError{Field: s.Name, Reason: "empty name"}
	}
	if err := s.Type.Validate(); err != nil {
		return err
	}
	if s.Type == TypeEnum && len(s.Choices) == 0 {
		return &InvalidFieldSpecError{Field: s.Name, Reason: "enum field declares no choices"}
	}
	if s.Type != TypeEnum && len(s.Choices) > 0 {
		return &InvalidFieldSpecError{Field: s.Name, Reason: fmt.Sprintf("choices are only valid for %s fields", TypeEnum)}
	}
	if s.Default != nil {
		if err := s.checkDefault(); err != nil {
			return err
		}
	}
	return nil
}

func (s FieldSpec) checkDefault() error {
	switch s.Type {
	case TypeString, TypePath:
		if _, ok := s.Default.(string); !ok {
			return &InvalidFieldSpecError{Field: s.Name, Reason: fmt.Sprintf("default %v is not a string", s.Default)}
		}
	case TypeNumber:
		switch s.Default.(type) {
		case float64, int:
		default:
			return &InvalidFieldSpecError{Field: s.Name, Reason: fmt.Sprintf("default %v is not a number", s.Default)}
		}
	case TypeBool:
		if _, ok := s.Default.(bool); !ok {
			return &InvalidFieldSpecError{Field: s.Name, Reason: fmt.Sprintf("default %v is not a bool", s.Default)}
		}
	case TypeEnum:
		str, ok := s.Default.(string)
		if !ok {
			return &InvalidFieldSpecError{Field: s.Name, Reason: fmt.Sprintf("default %v is not a string", s.Default)}
		}
		for _, c := range s.Choices {
			if c == str {
				return nil
			}
		}
		return &InvalidFieldSpecError{
			Field:  s.Name,
			Reason: fmt.Sprintf("default %q is not among choices [%s]", str, strings.Join(s.Choices, ", ")),
		}
	}
	return nil
}

// DefaultNumber normalizes a TypeNumber default to float64. Pipelines commonly
// declare integer defaults; parsing always yields float64, so comparisons go
// through this helper.
func (s FieldSpec) DefaultNumber() (float64, bool) {
	switch v := s.Default.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
