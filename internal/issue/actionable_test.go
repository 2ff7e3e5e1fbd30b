// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("toml: line 3: expected key")
	err := New("load site configuration").
		WithResource("/etc/clip/site.toml").
		Wrap(cause)

	want := "failed to load site configuration: /etc/clip/site.toml: toml: line 3: expected key"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestActionableErrorWithoutResourceOrCause(t *testing.T) {
	t.Parallel()

	err := New("extract parameter schema")
	if err.Error() != "failed to extract parameter schema" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("expected nil cause")
	}
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()

	err := New("parse arguments").
		WithSuggestion("see --help for the flag list").
		WithSuggestion("check the flag value type")

	out := err.Format(false)
	if !strings.Contains(out, "  - see --help for the flag list") {
		t.Errorf("expected first suggestion in output, got %q", out)
	}
	if !strings.Contains(out, "  - check the flag value type") {
		t.Errorf("expected second suggestion in output, got %q", out)
	}
	if strings.Contains(out, "Cause chain") {
		t.Error("non-verbose format should not include the cause chain")
	}
}

func TestFormatVerboseChain(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	mid := fmt.Errorf("mkdir /data/run: %w", inner)
	err := New("prepare working directory").Wrap(mid)

	out := err.Format(true)
	if !strings.Contains(out, "Cause chain:") {
		t.Fatalf("expected cause chain in verbose output, got %q", out)
	}
	if !strings.Contains(out, "1. mkdir /data/run: permission denied") {
		t.Errorf("expected first chain entry, got %q", out)
	}
	if !strings.Contains(out, "2. permission denied") {
		t.Errorf("expected second chain entry, got %q", out)
	}
}
