// SPDX-License-Identifier: MPL-2.0

// Package clip turns a pipeline definition into a command-line program.
//
// The flag surface is derived from the pipeline's declared input fields, two
// fixed flag groups handle working-directory placement and execution-plugin
// selection, and a deployment site can override defaults through a TOML file
// named by the CLIP_CONF environment variable. A pipeline author's whole main
// function is:
//
//	func main() {
//		app, err := clip.New(myPipeline)
//		if err != nil {
//			fmt.Fprintln(os.Stderr, err)
//			os.Exit(2)
//		}
//		app.Main(context.Background())
//	}
package clip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"clip/internal/bind"
	"clip/internal/dispatch"
	"clip/internal/issue"
	"clip/internal/schema"
	"clip/internal/siteconfig"
	"clip/pkg/pipeline"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App is the generated command-line interface for one pipeline.
	App struct {
		def     pipeline.Definition
		specs   []pipeline.FieldSpec
		version string

		// baseInputFields are field names whose values are hashed into the
		// derived working-directory name: inputs that force a full rerun
		// when changed.
		baseInputFields []string

		// destDirFields are path-typed field names whose common parent
		// becomes the default destination directory.
		destDirFields []string

		resources *dispatch.ResourceRequest

		stderr  io.Writer
		logger  *log.Logger
		verbose bool
	}

	// Option configures an App.
	Option func(*App)
)

// WithBaseInputs names the fields whose values identify a run. Reruns with
// identical base inputs share a derived working directory; changed inputs get
// a fresh one.
func WithBaseInputs(fields ...string) Option {
	return func(a *App) { a.baseInputFields = fields }
}

// WithDestDirFrom names path fields whose closest common parent directory is
// used as the default destination directory.
func WithDestDirFrom(fields ...string) Option {
	return func(a *App) { a.destDirFields = fields }
}

// WithResources attaches cluster resource needs, rendered to scheduler
// arguments when a distributed plugin is selected.
func WithResources(r *dispatch.ResourceRequest) Option {
	return func(a *App) { a.resources = r }
}

// WithVersion sets the version string reported by --version.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithStderr redirects diagnostic output. Intended for tests.
func WithStderr(w io.Writer) Option {
	return func(a *App) { a.stderr = w }
}

// New builds the CLI for a pipeline. The parameter schema is extracted
// eagerly: a pipeline exposing no usable fields is a misuse of the adapter
// and fails here rather than at run time.
func New(def pipeline.Definition, opts ...Option) (*App, error) {
	specs, err := schema.Extract(def)
	if err != nil {
		return nil, issue.New("extract parameter schema").
			WithResource(def.Name()).
			Wrap(err)
	}

	a := &App{
		def:     def,
		specs:   specs,
		version: "dev",
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: def.Name()})
	return a, nil
}

// Execute parses args, runs the pipeline, and returns the process exit code:
// 0 success, 2 argument/schema error, 3 configuration load error, 4
// execution or working-directory error. Exactly one diagnostic line (plus
// suggestions, if any) is written to stderr on failure.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.buildRoot()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		code := ExitArgument // cobra's own parse errors count as argument errors
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		}
		a.renderError(err)
		return code
	}
	return ExitSuccess
}

// Main is the os.Exit form of Execute for use from a main function. It runs
// through fang for styled help, --version handling, and interrupt
// notification.
func (a *App) Main(ctx context.Context) {
	err := fang.Execute(ctx, a.buildRoot(),
		fang.WithVersion(a.version),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitArgument)
	}
	os.Exit(ExitSuccess)
}

func (a *App) buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           a.def.Name(),
		Short:         fmt.Sprintf("Command-line interface to the %s pipeline", a.def.Name()),
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.run,
	}

	// Declaration order is the help order.
	root.Flags().SortFlags = false
	bind.RegisterSchema(root.Flags(), a.specs)
	bind.RegisterFixed(root.Flags())
	root.Flags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	return root
}

// run sequences the invocation: site configuration, argument binding,
// working-directory resolution, dispatch.
func (a *App) run(cmd *cobra.Command, _ []string) error {
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	site, err := siteconfig.Load()
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	binding, err := bind.Resolve(cmd.Flags(), a.specs, site)
	if err != nil {
		return &ExitError{Code: ExitArgument, Err: issue.New("parse arguments").Wrap(err)}
	}

	bound, err := a.def.Bind(binding.Values)
	if err != nil {
		return &ExitError{Code: ExitArgument, Err: issue.New("bind pipeline inputs").Wrap(err)}
	}

	destDir, err := dispatch.ResolveDestDir(binding.Options.DestDir, a.pathValues(binding.Values))
	if err != nil {
		return &ExitError{Code: ExitExecution, Err: issue.New("resolve destination directory").Wrap(err)}
	}

	workDir, derived := dispatch.ResolveWorkDir(
		binding.Options.WorkDir,
		binding.Options.WorkDirRoot,
		destDir,
		a.def.Name(),
		a.baseInputValues(binding.Values),
		binding.Options.WorkDirSuffix,
	)

	result, err := dispatch.Execute(cmd.Context(), dispatch.Request{
		Pipeline:       bound,
		WorkDir:        workDir,
		WorkDirDerived: derived,
		KeepWorkDir:    binding.Options.KeepWorkDir,
		Plugin:         binding.Options.Plugin,
		PluginArgs:     binding.Options.PluginArgs,
		SiteArgs:       site.PluginArgs,
		Resources:      a.resources,
		Logger:         a.logger,
	})
	if err != nil {
		return &ExitError{
			Code: ExitExecution,
			Err: issue.New("prepare working directory").
				WithResource(workDir).
				WithSuggestion("check directory permissions").
				Wrap(err),
		}
	}
	if !result.Success {
		return &ExitError{
			Code: ExitExecution,
			Err: issue.New("run pipeline").
				WithResource(a.def.Name()).
				Wrap(errors.New(result.ErrorDetail)),
		}
	}
	return nil
}

// renderError writes the single user-facing diagnostic line, expanding
// actionable errors with their suggestions (and cause chain when verbose).
func (a *App) renderError(err error) {
	msg := err.Error()
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		msg = ae.Format(a.verbose)
	}
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), msg)
}

// baseInputValues stringifies the configured base-input field values in
// configuration order. Unset fields are skipped, matching the behavior of a
// rerun where an optional input stays absent.
func (a *App) baseInputValues(values pipeline.Values) []string {
	out := make([]string, 0, len(a.baseInputFields))
	for _, f := range a.baseInputFields {
		if v, ok := values[f]; ok {
			out = append(out, fmt.Sprintf("%v", v))
		}
	}
	return out
}

// pathValues collects the string values of the configured destination fields.
func (a *App) pathValues(values pipeline.Values) []string {
	out := make([]string, 0, len(a.destDirFields))
	for _, f := range a.destDirFields {
		if s, ok := values[f].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
