// SPDX-License-Identifier: MPL-2.0

package siteconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSiteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad_UnsetEnvVarYieldsEmptyConfig(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv(EnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkingDir != "" || cfg.WorkDirRoot != "" || cfg.Plugin != "" || len(cfg.PluginArgs) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoad_MissingFileYieldsEmptyConfig(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	SetPathOverride(filepath.Join(t.TempDir(), "nope.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Plugin != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoad_RecognizedKeys(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := writeSiteFile(t, `
working_dir = "/tmp/run1"
work_dir_root = "/scratch"
plugin = "SGE"

[plugin_args]
qsub_args = "-b n"
`)
	SetPathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkingDir != "/tmp/run1" {
		t.Errorf("expected working_dir /tmp/run1, got %q", cfg.WorkingDir)
	}
	if cfg.WorkDirRoot != "/scratch" {
		t.Errorf("expected work_dir_root /scratch, got %q", cfg.WorkDirRoot)
	}
	if cfg.Plugin != "SGE" {
		t.Errorf("expected plugin SGE, got %q", cfg.Plugin)
	}
	if cfg.PluginArgs["qsub_args"] != "-b n" {
		t.Errorf("expected qsub_args to survive, got %v", cfg.PluginArgs)
	}
}

func TestLoad_UnrecognizedKeysIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := writeSiteFile(t, `
plugin = "Linear"
cluster_admin = "nobody@example.org"

[scratch_quota]
gigabytes = 500
`)
	SetPathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Plugin != "Linear" {
		t.Errorf("expected plugin Linear, got %q", cfg.Plugin)
	}
}

func TestLoad_SyntaxErrorIsFatal(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := writeSiteFile(t, `plugin = = "Linear"`)
	SetPathOverride(path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for malformed TOML")
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Path != path {
		t.Errorf("expected error to name %s, got %s", path, loadErr.Path)
	}
}

func TestLoad_ResultIsCached(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := writeSiteFile(t, `plugin = "MultiProc"`)
	SetPathOverride(path)

	first, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rewriting the file must not change the cached result.
	if err := os.WriteFile(path, []byte(`plugin = "Debug"`), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	second, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Error("expected the cached *Config instance")
	}
	if second.Plugin != "MultiProc" {
		t.Errorf("expected cached plugin MultiProc, got %q", second.Plugin)
	}
}
