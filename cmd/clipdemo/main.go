// SPDX-License-Identifier: MPL-2.0

// clipdemo exposes a small example pipeline as a command line program.
// It converts an input file to uppercase, writes per-iteration intermediate
// files into the working directory, and places the result under the
// destination directory.
//
// Try:
//
//	clipdemo --in-file notes.txt --subject s001
//	clipdemo --in-file notes.txt --subject s001 --plugin MultiProc --plugin-arg workers=2
//	CLIP_CONF=site.toml clipdemo --in-file notes.txt --subject s001
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clip/pkg/clip"
	"clip/pkg/pipeline"
	"clip/pkg/workflow"
)

func buildPipeline() *workflow.Workflow {
	wf := workflow.New("clipdemo",
		pipeline.FieldSpec{
			Name: "inFile", Type: pipeline.TypePath, Required: true,
			Help: "input text file to process",
		},
		pipeline.FieldSpec{
			Name: "subject", Type: pipeline.TypeString, Required: true,
			Help: "subject identifier, used to name the output",
		},
		pipeline.FieldSpec{
			Name: "iterations", Type: pipeline.TypeNumber, Default: 3,
			Help: "number of intermediate passes",
		},
		pipeline.FieldSpec{
			Name: "mode", Type: pipeline.TypeEnum, Choices: []string{"fast", "full"}, Default: "fast",
			Help: "processing mode",
		},
	)

	wf.AddStep("read", func(_ context.Context, rc *workflow.RunContext) error {
		data, err := os.ReadFile(rc.Values["inFile"].(string))
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(rc.WorkDir, "input.txt"), data, 0o644)
	})

	wf.AddStep("transform", func(_ context.Context, rc *workflow.RunContext) error {
		iters := int(rc.Values["iterations"].(float64))
		data, err := os.ReadFile(filepath.Join(rc.WorkDir, "input.txt"))
		if err != nil {
			return err
		}
		text := string(data)
		for i := 0; i < iters; i++ {
			text = strings.ToUpper(text)
			name := fmt.Sprintf("pass_%02d.txt", i)
			if err := os.WriteFile(filepath.Join(rc.WorkDir, name), []byte(text), 0o644); err != nil {
				return err
			}
		}
		return os.WriteFile(filepath.Join(rc.WorkDir, "result.txt"), []byte(text), 0o644)
	}, "read")

	wf.AddStep("publish", func(_ context.Context, rc *workflow.RunContext) error {
		data, err := os.ReadFile(filepath.Join(rc.WorkDir, "result.txt"))
		if err != nil {
			return err
		}
		dest := filepath.Dir(rc.Values["inFile"].(string))
		out := filepath.Join(dest, rc.Values["subject"].(string)+"_processed.txt")
		return os.WriteFile(out, data, 0o644)
	}, "transform")

	return wf
}

func main() {
	app, err := clip.New(buildPipeline(),
		clip.WithVersion("0.1.0"),
		clip.WithBaseInputs("inFile", "subject"),
		clip.WithDestDirFrom("inFile"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clip.ExitArgument)
	}
	app.Main(context.Background())
}
