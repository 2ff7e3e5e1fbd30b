// SPDX-License-Identifier: MPL-2.0

package clip

import "fmt"

// Process exit codes. Every failure in the adapter is terminal and maps to
// exactly one of these.
const (
	// ExitSuccess is a clean run.
	ExitSuccess = 0
	// ExitArgument covers argument and schema errors: bad flag values,
	// missing required flags, unknown plugins, unusable schemas.
	ExitArgument = 2
	// ExitConfig covers site configuration files that exist but cannot be
	// parsed.
	ExitConfig = 3
	// ExitExecution covers working-directory failures and failures raised by
	// the pipeline run itself.
	ExitExecution = 4
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
