// SPDX-License-Identifier: MPL-2.0

// Package bind parses command-line arguments against a derived flag schema and
// converts the textual values back into the pipeline's native field types.
//
// Every schema flag is registered as a string flag and converted after
// parsing, so type failures surface as this package's TypeError (naming the
// flag and the expected type) instead of pflag's generic message. Boolean
// fields get a NoOptDefVal so plain --flag works.
//
// Parsing has no side effects beyond memory: the working directory is not
// created here and the pipeline is not run.
package bind

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"clip/internal/schema"
	"clip/internal/siteconfig"
	"clip/pkg/pipeline"

	"github.com/spf13/pflag"
)

// Fixed flag names, always present regardless of the pipeline's schema.
const (
	// FlagWorkDir explicitly overrides the working directory. An explicit
	// working directory is never removed after a successful run.
	FlagWorkDir = "work-dir"
	// FlagPlugin selects the execution plugin.
	FlagPlugin = "plugin"
	// FlagPluginArg supplies one key=value plugin argument; repeatable.
	FlagPluginArg = "plugin-arg"
	// FlagDestDir sets the destination directory results are stored under.
	FlagDestDir = "dest-dir"
	// FlagWorkDirRoot sets the directory the derived working dir is placed in.
	FlagWorkDirRoot = "wd-root"
	// FlagWorkDirSuffix appends a suffix to the derived working dir name.
	FlagWorkDirSuffix = "wd-suffix"
	// FlagKeepWorkDir keeps the working directory even after a clean run.
	FlagKeepWorkDir = "keep-wd"
)

var (
	// ErrMalformedPluginArg is the sentinel error for --plugin-arg values
	// that are not key=value.
	ErrMalformedPluginArg = errors.New("malformed plugin argument")
)

type (
	// TypeError is returned when a flag value cannot be converted to the
	// field's declared type.
	TypeError struct {
		Flag  string
		Want  string
		Value string
	}

	// MissingFlagError is returned when a required field received no value
	// from any source.
	MissingFlagError struct {
		Flag string
	}

	// Options are the resolved fixed-flag values for one invocation, with
	// precedence CLI > site configuration > built-in.
	Options struct {
		// WorkDir is the explicit working-directory override, or "".
		WorkDir string
		// DestDir is the explicit destination directory, or "".
		DestDir string
		// WorkDirRoot is the root for derived working directories, or "".
		WorkDirRoot string
		// WorkDirSuffix is appended to the derived working directory name.
		WorkDirSuffix string
		// KeepWorkDir disables working-directory cleanup on success.
		KeepWorkDir bool
		// Plugin is the selected execution plugin, always a known name.
		Plugin string
		// PluginArgs are the CLI-supplied plugin arguments. Site defaults are
		// merged beneath these at dispatch time.
		PluginArgs map[string]string
	}

	// Binding is the outcome of a successful parse: converted field values
	// plus the resolved run options.
	Binding struct {
		Values  pipeline.Values
		Options Options
	}
)

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid value %q for --%s: expected %s", e.Value, e.Flag, e.Want)
}

func (e *MissingFlagError) Error() string {
	return fmt.Sprintf("required flag --%s not provided", e.Flag)
}

// RegisterSchema adds one flag per FieldSpec to the flag set, in declaration
// order. Callers should disable flag sorting on the set so help output
// preserves that order.
func RegisterSchema(fs *pflag.FlagSet, specs []pipeline.FieldSpec) {
	for _, spec := range specs {
		flag := schema.FlagName(spec.Name)
		usage := spec.Help
		if usage == "" {
			usage = fmt.Sprintf("%s value for pipeline input %q", spec.Type, spec.Name)
		}
		if spec.Type == pipeline.TypeEnum {
			usage += fmt.Sprintf(" (one of: %s)", strings.Join(spec.Choices, ", "))
		}

		fs.String(flag, defaultText(spec), usage)
		if spec.Type == pipeline.TypeBool {
			// Allow plain --flag without a value.
			fs.Lookup(flag).NoOptDefVal = "true"
		}
	}
}

// RegisterFixed adds the always-present flags: working-directory handling and
// plugin selection.
func RegisterFixed(fs *pflag.FlagSet) {
	fs.String(FlagWorkDir, "", "working directory for intermediate outputs (derived when unset; an explicit value is never cleaned up)")
	fs.String(FlagDestDir, "", "directory to store results under (default: common parent of the input paths, else the current directory)")
	fs.String(FlagWorkDirRoot, "", "directory to place the derived working directory under")
	fs.String(FlagWorkDirSuffix, "", "suffix appended to the derived working directory name, to avoid collisions between simultaneous runs")
	fs.Bool(FlagKeepWorkDir, false, "keep the working directory even when the run succeeds")
	fs.String(FlagPlugin, "", fmt.Sprintf("execution plugin to run the pipeline with (one of: %s)", strings.Join(pipeline.KnownPlugins(), ", ")))
	fs.StringArray(FlagPluginArg, nil, "plugin argument as key=value; repeatable")
}

// Resolve converts the parsed flag set into a Binding. It enforces required
// fields, converts values per declared type, validates the plugin name, and
// applies site-configuration defaults for fixed flags the CLI left unset.
func Resolve(fs *pflag.FlagSet, specs []pipeline.FieldSpec, site *siteconfig.Config) (*Binding, error) {
	values := make(pipeline.Values, len(specs))
	for _, spec := range specs {
		flag := schema.FlagName(spec.Name)
		if !fs.Changed(flag) {
			if spec.Default != nil {
				values[spec.Name] = normalizeDefault(spec)
				continue
			}
			if spec.Required {
				return nil, &MissingFlagError{Flag: flag}
			}
			continue
		}

		raw, err := fs.GetString(flag)
		if err != nil {
			return nil, err
		}
		val, err := convert(spec, flag, raw)
		if err != nil {
			return nil, err
		}
		values[spec.Name] = val
	}

	opts, err := resolveOptions(fs, site)
	if err != nil {
		return nil, err
	}

	return &Binding{Values: values, Options: opts}, nil
}

// Parse is the one-shot form: builds a flag set from the schema, parses args,
// and resolves the binding. The CLI layer registers the same flags on its
// cobra command and calls Resolve directly; tests and embedders use Parse.
func Parse(prog string, args []string, specs []pipeline.FieldSpec, site *siteconfig.Config) (*Binding, error) {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.SortFlags = false
	RegisterSchema(fs, specs)
	RegisterFixed(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return Resolve(fs, specs, site)
}

func resolveOptions(fs *pflag.FlagSet, site *siteconfig.Config) (Options, error) {
	var opts Options
	var err error

	if opts.WorkDir, err = fs.GetString(FlagWorkDir); err != nil {
		return opts, err
	}
	if opts.DestDir, err = fs.GetString(FlagDestDir); err != nil {
		return opts, err
	}
	if opts.WorkDirRoot, err = fs.GetString(FlagWorkDirRoot); err != nil {
		return opts, err
	}
	if opts.WorkDirSuffix, err = fs.GetString(FlagWorkDirSuffix); err != nil {
		return opts, err
	}
	if opts.KeepWorkDir, err = fs.GetBool(FlagKeepWorkDir); err != nil {
		return opts, err
	}

	plugin, err := fs.GetString(FlagPlugin)
	if err != nil {
		return opts, err
	}

	// Site configuration fills fixed-flag gaps; built-ins fill the rest.
	if site != nil {
		if opts.WorkDir == "" {
			opts.WorkDir = site.WorkingDir
		}
		if opts.WorkDirRoot == "" {
			opts.WorkDirRoot = site.WorkDirRoot
		}
		if plugin == "" {
			plugin = site.Plugin
		}
	}
	if plugin == "" {
		plugin = pipeline.PluginLinear
	}
	if !pipeline.IsKnownPlugin(plugin) {
		return opts, &pipeline.UnknownPluginError{Name: plugin}
	}
	opts.Plugin = plugin

	rawArgs, err := fs.GetStringArray(FlagPluginArg)
	if err != nil {
		return opts, err
	}
	opts.PluginArgs, err = ParsePluginArgs(rawArgs)
	if err != nil {
		return opts, err
	}

	return opts, nil
}

// ParsePluginArgs splits repeated key=value entries into a map. Later entries
// override earlier ones. Values may contain '='; only the first one splits.
func ParsePluginArgs(entries []string) (map[string]string, error) {
	args := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q is not key=value", ErrMalformedPluginArg, entry)
		}
		args[key] = value
	}
	return args, nil
}

func convert(spec pipeline.FieldSpec, flag, raw string) (any, error) {
	switch spec.Type {
	case pipeline.TypeString:
		return raw, nil
	case pipeline.TypePath:
		return filepath.Clean(raw), nil
	case pipeline.TypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &TypeError{Flag: flag, Want: "a number", Value: raw}
		}
		return n, nil
	case pipeline.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &TypeError{Flag: flag, Want: "a boolean", Value: raw}
		}
		return b, nil
	case pipeline.TypeEnum:
		for _, c := range spec.Choices {
			if c == raw {
				return raw, nil
			}
		}
		return nil, &TypeError{
			Flag:  flag,
			Want:  "one of " + strings.Join(spec.Choices, ", "),
			Value: raw,
		}
	default:
		return nil, &pipeline.InvalidFieldTypeError{Value: spec.Type}
	}
}

// normalizeDefault returns the field default in its parsed representation,
// so defaulted and CLI-supplied values are indistinguishable downstream.
func normalizeDefault(spec pipeline.FieldSpec) any {
	if spec.Type == pipeline.TypeNumber {
		if n, ok := spec.DefaultNumber(); ok {
			return n
		}
	}
	if spec.Type == pipeline.TypePath {
		if s, ok := spec.Default.(string); ok {
			return filepath.Clean(s)
		}
	}
	return spec.Default
}

// defaultText renders a field default as the flag's textual default for help
// output and Changed tracking.
func defaultText(spec pipeline.FieldSpec) string {
	if spec.Default == nil {
		return ""
	}
	switch v := spec.Default.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
