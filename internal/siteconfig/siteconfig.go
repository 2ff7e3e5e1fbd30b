// SPDX-License-Identifier: MPL-2.0

// Package siteconfig loads the deployment-site configuration named by the
// CLIP_CONF environment variable.
//
// The file is plain TOML with a fixed options table: a default working
// directory, a default working-directory root, a default execution plugin, and
// default plugin arguments. An unset variable or a missing file is not an
// error; the adapter then runs on built-in and pipeline defaults alone.
// Unrecognized keys are ignored. A present but unparseable file is fatal.
package siteconfig

import (
	"fmt"
	"os"

	"clip/internal/issue"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvVar is the environment variable holding the site configuration file path.
const EnvVar = "CLIP_CONF"

type (
	// Config is the deployment-site override of adapter defaults.
	// The zero value means "no site overrides"; every consumer falls back to
	// its own built-in default for any empty member.
	Config struct {
		// WorkingDir is the default working directory, used verbatim when the
		// CLI gives no override and no derivation inputs are configured.
		WorkingDir string `mapstructure:"working_dir"`

		// WorkDirRoot is the default root under which derived working
		// directories are placed.
		WorkDirRoot string `mapstructure:"work_dir_root"`

		// Plugin is the default execution plugin name.
		Plugin string `mapstructure:"plugin"`

		// PluginArgs are default plugin arguments, applied beneath any
		// CLI-supplied arguments.
		PluginArgs map[string]string `mapstructure:"plugin_args"`
	}

	// LoadError is returned when the site configuration file exists but
	// cannot be parsed.
	LoadError struct {
		Path string
		Err  error
	}
)

func (e *LoadError) Error() string {
	return fmt.Sprintf("site configuration %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *LoadError) Unwrap() error { return e.Err }

// loadFrom reads and decodes one site configuration file. The caller has
// already established that the file exists.
func loadFrom(path string) (*Config, error) {
	v := viper.New()

	if err := loadTOMLIntoViper(v, path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &cfg, nil
}

// loadTOMLIntoViper parses a TOML file and merges its contents into Viper.
// Decoding goes through a plain map so unrecognized keys are carried along
// harmlessly and dropped at Unmarshal time.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if err := v.MergeConfigMap(raw); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// wrapLoadError attaches user-facing context to a LoadError for display.
func wrapLoadError(err *LoadError) error {
	return issue.New("load site configuration").
		WithResource(err.Path).
		WithSuggestion("check the TOML syntax of the file").
		WithSuggestion(fmt.Sprintf("unset %s to run without a site configuration", EnvVar)).
		Wrap(err)
}

// fileExists checks that path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
