package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/graph"
	"github.com/matzehuels/irscope/pkg/observability"
)

// Runner encapsulates pipeline execution.
// Both CLI and server use this to avoid duplicating the stage sequence.
//
// The Runner holds only read-only configuration. Multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Mapper       *diagnostics.Mapper
	LibraryRoots []string
	Logger       *log.Logger
}

// NewRunner creates a runner.
// If mapper is nil, a mapper with the default deny list is used.
// If logger is nil, the default logger is used.
func NewRunner(mapper *diagnostics.Mapper, libraryRoots []string, logger *log.Logger) *Runner {
	if mapper == nil {
		mapper = diagnostics.NewMapper()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Mapper:       mapper,
		LibraryRoots: append([]string(nil), libraryRoots...),
		Logger:       logger,
	}
}

// Execute runs the complete analyze → build → emit pipeline.
//
// A source that cannot be analyzed is not an error: the result has nil
// Roots and Artifact, and Diagnostics explain why. Errors are returned for
// invalid options, an exceeded timeout or cancellation, and render failures.
func (r *Runner) Execute(ctx context.Context, src []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := &Result{Format: opts.Format}

	// Stage 1: Analyze
	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, opts.Language, len(src))
	analyzeStart := time.Now()
	analysis, err := Analyze(ctx, src, opts, r.LibraryRoots)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	if err != nil {
		hooks.OnAnalyzeComplete(ctx, opts.Language, 0, result.Stats.AnalyzeTime, err)
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Messages = analysis.Messages
	result.Diagnostics = r.Mapper.Map(analysis.Messages)
	for _, m := range analysis.Messages {
		if !m.Severity.IsError() && !m.Severity.IsWarning() {
			logger.Debug("analyzer", "severity", m.Severity, "message", m.Message)
		}
	}

	if analysis.Failed() {
		hooks.OnAnalyzeComplete(ctx, opts.Language, 0, result.Stats.AnalyzeTime, nil)
		logger.Info("analysis produced no representation",
			"language", opts.Language,
			"diagnostics", len(result.Diagnostics),
			"duration", result.Stats.AnalyzeTime)
		return result, nil
	}
	result.Roots = analysis.Roots

	// Stage 2: Build
	g, err := graph.Build(ctx, analysis.Roots, graph.Options{MaxNodes: opts.MaxNodes})
	if err != nil {
		if cerr := contextError(ctx, "build"); cerr != nil {
			err = cerr
		}
		hooks.OnAnalyzeComplete(ctx, opts.Language, 0, result.Stats.AnalyzeTime, err)
		return nil, err
	}
	result.Graph = g
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.Revisited = g.Revisited
	result.Stats.Truncated = g.Truncated
	hooks.OnAnalyzeComplete(ctx, opts.Language, g.NodeCount(), result.Stats.AnalyzeTime, nil)

	logger.Info("analyzed source",
		"language", opts.Language,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.AnalyzeTime)
	if g.Truncated > 0 {
		logger.Warn("graph truncated", "max_nodes", opts.MaxNodes, "dropped", g.Truncated)
	}
	if g.Revisited > 0 {
		logger.Warn("representation contains shared nodes", "revisited", g.Revisited)
	}

	// Stage 3: Emit
	hooks.OnEmitStart(ctx, opts.Format, g.NodeCount())
	emitStart := time.Now()
	artifact, err := Render(ctx, g, analysis.Roots, opts)
	result.Stats.EmitTime = time.Since(emitStart)
	hooks.OnEmitComplete(ctx, opts.Format, len(artifact), result.Stats.EmitTime, err)
	if err != nil {
		if cerr := contextError(ctx, "emit"); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("emit: %w", err)
	}
	result.Artifact = artifact

	logger.Info("emitted graph",
		"format", opts.Format,
		"bytes", len(artifact),
		"duration", result.Stats.EmitTime)

	return result, nil
}

// Convert runs the pipeline and returns the wire response. The format is
// the Mermaid flowchart unless opts asks for the class diagram.
func (r *Runner) Convert(ctx context.Context, src []byte, opts Options) (*Response, error) {
	if opts.Format != FormatClass {
		opts.Format = FormatMermaid
	}
	opts.validated = false
	result, err := r.Execute(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	resp, err := result.Response()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build response")
	}
	return resp, nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
