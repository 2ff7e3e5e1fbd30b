// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling for user-facing diagnostics.
//
// Every failure in the adapter is terminal for the invocation, so errors carry
// enough context to print a single useful line: which stage failed
// (configuration, schema, arguments, dispatch), which resource was involved,
// and optional remediation hints shown in verbose mode.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is an error with context for user-facing messages.
// Build one with New and chain the With* methods:
//
//	return issue.New("load site configuration").
//		WithResource(path).
//		WithSuggestion("check the TOML syntax").
//		Wrap(err)
type ActionableError struct {
	// Stage describes what was being attempted, as a verb phrase
	// (e.g. "load site configuration", "parse arguments").
	Stage string

	// Resource identifies the file, flag, or entity involved (optional).
	Resource string

	// Suggestions are remediation hints (optional).
	Suggestions []string

	// Cause is the underlying error (optional).
	Cause error
}

// New creates an ActionableError for the given stage.
func New(stage string) *ActionableError {
	return &ActionableError{Stage: stage}
}

// WithResource sets the resource involved and returns the receiver.
func (e *ActionableError) WithResource(res string) *ActionableError {
	e.Resource = res
	return e
}

// WithSuggestion appends a remediation hint and returns the receiver.
func (e *ActionableError) WithSuggestion(hint string) *ActionableError {
	e.Suggestions = append(e.Suggestions, hint)
	return e
}

// Wrap sets the underlying cause and returns the receiver.
func (e *ActionableError) Wrap(err error) *ActionableError {
	e.Cause = err
	return e
}

// Error returns the single-line diagnostic:
//
//	failed to <stage>: <resource>: <cause>
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Stage)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for display. The non-verbose form is the Error()
// line plus any suggestions; the verbose form additionally lists the full
// cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	for _, hint := range e.Suggestions {
		msg.WriteString("\n  - ")
		msg.WriteString(hint)
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nCause chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}
