package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/irscope/pkg/analyzer"
	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	graphio "github.com/matzehuels/irscope/pkg/io"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output   string // output file (one input) or directory (several)
	format   string
	language string // forces a language; otherwise detected per file
	offsets  bool
	maxNodes int
	jobs     int
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert source files to graphs",
		Long: `Convert source files into a graph of their syntax tree.

The language is detected from the file extension unless --lang is given.
A .json file produced by 'convert --format json' is re-rendered without
analysis.

With a single input and no --output, the artifact is written to stdout.
With several inputs, each artifact is written next to its input (or into
the --output directory) with the format's extension. Inputs are converted
concurrently.`,
		Example: `  irscope convert main.kt
  irscope convert --offsets main.kt > main.mmd
  irscope convert --format svg -o graphs/ a.kt b.go`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-nodes") {
				opts.maxNodes = c.Config.Analysis.MaxNodes
			}
			return c.runConvert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one input) or directory (several inputs)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatMermaid, "output format: mermaid, class, dot, svg, json")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "source language: "+strings.Join(analyzer.Names(), ", ")+" (default: by extension)")
	cmd.Flags().BoolVar(&opts.offsets, "offsets", false, "annotate nodes with source offsets")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "cap emitted nodes (0 = unlimited)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "files converted in parallel")

	return cmd
}

// converted is the outcome of one input file.
type converted struct {
	input    string
	output   string // "" for stdout
	result   *pipeline.Result
	imported bool
}

func (c *CLI) runConvert(ctx context.Context, inputs []string, opts convertOpts) error {
	logger := loggerFromContext(ctx)
	runner := c.newRunner()
	prog := newProgress(logger)

	outputs, err := outputPaths(inputs, opts)
	if err != nil {
		return err
	}

	var spinner *Spinner
	if len(inputs) > 1 {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Converting %d files...", len(inputs)))
		spinner.Start()
	}

	results := make([]converted, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, input := range inputs {
		g.Go(func() error {
			out, err := c.convertFile(gctx, runner, input, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			out.output = outputs[i]
			if out.result.Artifact != nil {
				if err := writeArtifact(out.output, out.result.Artifact); err != nil {
					return fmt.Errorf("%s: %w", input, err)
				}
			}
			results[i] = out
			return nil
		})
	}
	err = g.Wait()
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.result.Failed() && !r.imported {
			failed++
			printError("%s: no graph produced", r.input)
		} else if r.output != "" {
			printSuccess("%s", r.input)
			printFile(r.output)
			printStats(r.result.Stats.NodeCount, r.result.Stats.EdgeCount, r.result.Stats.Truncated)
		}
		printDiagnostics(r.input, r.result.Diagnostics)
	}
	if failed > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%d of %d file(s) could not be analyzed", failed, len(inputs))
	}
	if len(inputs) > 1 {
		prog.done(fmt.Sprintf("Converted %d files", len(inputs)))
	}
	return nil
}

// convertFile analyzes one source file, or re-renders an exported graph.
func (c *CLI) convertFile(ctx context.Context, runner *pipeline.Runner, input string, opts convertOpts) (converted, error) {
	if err := errors.ValidatePath(input); err != nil {
		return converted{}, err
	}
	popts := c.baseOptions()
	popts.Format = opts.format
	popts.Offsets = opts.offsets
	popts.MaxNodes = opts.maxNodes
	popts.FileName = filepath.Base(input)

	if strings.EqualFold(filepath.Ext(input), ".json") {
		return importAndRender(ctx, input, popts)
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return converted{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read source")
	}

	popts.Language = opts.language
	if popts.Language == "" {
		if lang, ok := analyzer.Detect(input); ok {
			popts.Language = lang.Name
		} else {
			popts.Language = c.Config.Analysis.Language
		}
	}

	result, err := runner.Execute(ctx, src, popts)
	if err != nil {
		return converted{}, err
	}
	return converted{input: input, result: result}, nil
}

func importAndRender(ctx context.Context, input string, opts pipeline.Options) (converted, error) {
	g, err := graphio.ImportJSON(input)
	if err != nil {
		return converted{}, err
	}
	artifact, err := pipeline.Render(ctx, g, nil, opts)
	if err != nil {
		return converted{}, err
	}
	return converted{
		input:    input,
		imported: true,
		result: &pipeline.Result{
			Graph:       g,
			Artifact:    artifact,
			Format:      opts.Format,
			Diagnostics: []diagnostics.Diagnostic{},
			Stats: pipeline.Stats{
				NodeCount: g.NodeCount(),
				EdgeCount: g.EdgeCount(),
			},
		},
	}, nil
}

// outputPaths decides where each artifact goes. An empty path means stdout.
func outputPaths(inputs []string, opts convertOpts) ([]string, error) {
	out := make([]string, len(inputs))
	if len(inputs) == 1 {
		out[0] = opts.output
		return out, nil
	}

	ext := pipeline.FormatExtensions[opts.format]
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ext
		dir := filepath.Dir(in)
		if opts.output != "" {
			dir = opts.output
		}
		p := filepath.Join(dir, base)
		if p == in {
			return nil, errors.New(errors.ErrCodeInvalidPath, "%s would overwrite its own input", in)
		}
		if prev, dup := seen[p]; dup {
			return nil, errors.New(errors.ErrCodeInvalidPath, "%s and %s would both write %s", prev, in, p)
		}
		seen[p] = in
		out[i] = p
	}
	if opts.output != "" {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
		}
	}
	return out, nil
}

func writeArtifact(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
