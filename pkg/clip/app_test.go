// SPDX-License-Identifier: MPL-2.0

package clip

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clip/internal/siteconfig"
	"clip/pkg/pipeline"
	"clip/pkg/workflow"
)

// demoWorkflow builds a two-step pipeline that records the values it ran with.
func demoWorkflow(t *testing.T, seen *pipeline.Values) *workflow.Workflow {
	t.Helper()
	return workflow.New("demo",
		pipeline.FieldSpec{Name: "subject", Type: pipeline.TypeString, Required: true},
		pipeline.FieldSpec{Name: "iterations", Type: pipeline.TypeNumber, Default: 5},
	).AddStep("collect", func(_ context.Context, rc *workflow.RunContext) error {
		if seen != nil {
			*seen = rc.Values
		}
		return nil
	}).AddStep("finish", func(context.Context, *workflow.RunContext) error {
		return nil
	}, "collect")
}

func newTestApp(t *testing.T, def pipeline.Definition, out *bytes.Buffer, opts ...Option) *App {
	t.Helper()
	app, err := New(def, append(opts, WithStderr(out))...)
	if err != nil {
		t.Fatalf("unexpected error from New: %v", err)
	}
	return app
}

func TestExecute_SuccessBindsParsedValues(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	var seen pipeline.Values
	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, &seen), &out)

	code := app.Execute(context.Background(), []string{
		"--subject", "s001",
		"--iterations", "12",
		"--work-dir", filepath.Join(t.TempDir(), "wd"),
	})
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, out.String())
	}
	if seen["subject"] != "s001" || seen["iterations"] != 12.0 {
		t.Errorf("expected parsed values round-tripped into the run, got %v", seen)
	}
}

func TestExecute_MissingRequiredFlag(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--iterations", "3"})
	if code != ExitArgument {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out.String(), "--subject") {
		t.Errorf("diagnostic should name the missing flag, got %q", out.String())
	}
}

func TestExecute_TypeErrorNamesFlag(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--subject", "s", "--iterations", "many"})
	if code != ExitArgument {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out.String(), "--iterations") || !strings.Contains(out.String(), "number") {
		t.Errorf("diagnostic should name the flag and expected type, got %q", out.String())
	}
}

func TestExecute_ConfigLoadError(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)

	broken := filepath.Join(t.TempDir(), "site.toml")
	if err := os.WriteFile(broken, []byte(`plugin = = "x"`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	siteconfig.SetPathOverride(broken)

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--subject", "s"})
	if code != ExitConfig {
		t.Fatalf("expected exit 3, got %d (stderr: %s)", code, out.String())
	}
	if !strings.Contains(out.String(), broken) {
		t.Errorf("diagnostic should name the config file, got %q", out.String())
	}
}

func TestExecute_SiteWorkingDirUsed(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)

	siteWD := filepath.Join(t.TempDir(), "run1")
	siteFile := filepath.Join(t.TempDir(), "site.toml")
	if err := os.WriteFile(siteFile, []byte("working_dir = "+quoteTOML(siteWD)+"\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	siteconfig.SetPathOverride(siteFile)

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--subject", "s"})
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, out.String())
	}
	// Site-provided working dirs count as explicit overrides: created, kept.
	if info, err := os.Stat(siteWD); err != nil || !info.IsDir() {
		t.Errorf("expected site working directory to be created and kept: %v", err)
	}
}

func TestExecute_RunFailureExitsFour(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	wf := workflow.New("demo",
		pipeline.FieldSpec{Name: "subject", Type: pipeline.TypeString, Required: true},
	).AddStep("explode", func(context.Context, *workflow.RunContext) error {
		return errors.New("disk full")
	})

	var out bytes.Buffer
	app := newTestApp(t, wf, &out)

	code := app.Execute(context.Background(), []string{
		"--subject", "s",
		"--work-dir", filepath.Join(t.TempDir(), "wd"),
	})
	if code != ExitExecution {
		t.Fatalf("expected exit 4, got %d", code)
	}
	if !strings.Contains(out.String(), "disk full") {
		t.Errorf("diagnostic should carry the pipeline's own cause, got %q", out.String())
	}
}

func TestExecute_UnknownPluginExitsTwo(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--subject", "s", "--plugin", "Torque"})
	if code != ExitArgument {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out.String(), "Torque") {
		t.Errorf("diagnostic should name the bad plugin, got %q", out.String())
	}
}

func TestExecute_UnknownFlagExitsTwo(t *testing.T) {
	siteconfig.Reset()
	t.Cleanup(siteconfig.Reset)
	t.Setenv(siteconfig.EnvVar, "")

	var out bytes.Buffer
	app := newTestApp(t, demoWorkflow(t, nil), &out)

	code := app.Execute(context.Background(), []string{"--no-such-flag"})
	if code != ExitArgument {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestNew_SchemaErrorForFieldlessPipeline(t *testing.T) {
	t.Parallel()

	wf := workflow.New("empty")
	if _, err := New(wf); err == nil {
		t.Fatal("expected schema error for a pipeline with no fields")
	}
}

func quoteTOML(s string) string {
	return "\"" + strings.ReplaceAll(s, "\\", "\\\\") + "\""
}
