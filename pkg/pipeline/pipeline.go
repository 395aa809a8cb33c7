// Package pipeline provides the conversion pipeline shared by the CLI, the
// HTTP backend and the explorer.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Analyze: parse source text into representation trees (pkg/analyzer)
//  2. Build: walk the trees into a graph (pkg/graph)
//  3. Emit: write the graph in the requested format (Mermaid, class
//     diagram, DOT, SVG or JSON)
//
// Diagnostics are mapped alongside, independent of the graph path. An
// analysis that yields no representation is not an error: the result
// carries no artifact and the diagnostics explain why.
//
// # Usage
//
//	runner := pipeline.NewRunner(diagnostics.NewMapper(), nil, logger)
//	resp, err := runner.Convert(ctx, src, pipeline.Options{
//	    Language: "kotlin",
//	    Offsets:  true,
//	})
//	if err != nil {
//	    return err
//	}
//	if resp.MermaidGraph != nil {
//	    fmt.Println(*resp.MermaidGraph)
//	}
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/graph"
	"github.com/matzehuels/irscope/pkg/tree"
)

// DefaultLanguage is the language assumed when none is given.
const DefaultLanguage = "kotlin"

// Format constants for output formats.
const (
	FormatMermaid = "mermaid"
	FormatClass   = "class"
	FormatDOT     = "dot"
	FormatSVG     = "svg"
	FormatJSON    = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatMermaid: true,
	FormatClass:   true,
	FormatDOT:     true,
	FormatSVG:     true,
	FormatJSON:    true,
}

// FormatExtensions maps each format to the file extension used when
// writing it to disk.
var FormatExtensions = map[string]string{
	FormatMermaid: ".mmd",
	FormatClass:   ".mmd",
	FormatDOT:     ".dot",
	FormatSVG:     ".svg",
	FormatJSON:    ".json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one conversion.
type Options struct {
	// Language selects the analyzer grammar (see analyzer.Names).
	Language string `json:"language"`
	// FileName labels the FILE root node.
	FileName string `json:"file_name,omitempty"`
	// Format selects the emitted artifact. Defaults to FormatMermaid.
	Format string `json:"format,omitempty"`
	// Offsets annotates node declarations with source ranges.
	Offsets bool `json:"offsets,omitempty"`
	// MaxNodes caps emitted nodes; 0 means unlimited.
	MaxNodes int `json:"max_nodes,omitempty"`

	// Timeout bounds the whole conversion; 0 means no bound.
	Timeout time.Duration `json:"-"`
	Logger  *log.Logger   `json:"-"`

	validated bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: mermaid, class, dot, svg, json)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if err := errors.ValidateLanguageName(o.Language); err != nil {
		return err
	}
	if o.Format == "" {
		o.Format = FormatMermaid
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.MaxNodes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max nodes cannot be negative: %d", o.MaxNodes)
	}
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout cannot be negative: %s", o.Timeout)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of one pipeline run.
type Result struct {
	// Roots are the analyzer's representation trees; nil when analysis
	// produced no representation.
	Roots []*tree.Node

	// Graph is the built graph; nil when Roots is nil.
	Graph *graph.Graph

	// Artifact is the emitted output in Format; nil when Roots is nil.
	Artifact []byte
	Format   string

	// Messages are the raw analyzer messages, Diagnostics the filtered
	// user-facing subset.
	Messages    []diagnostics.Message
	Diagnostics []diagnostics.Diagnostic

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Revisited   int
	Truncated   int
	AnalyzeTime time.Duration
	EmitTime    time.Duration
}

// Failed reports whether the analysis produced no representation.
func (r *Result) Failed() bool { return r.Roots == nil }

// Response is the wire form of a conversion, shared by the HTTP backend and
// its clients.
type Response struct {
	// MermaidGraph is null exactly when no representation was produced.
	MermaidGraph *string `json:"mermaidGraph"`
	// Messages is always present, possibly empty.
	Messages []diagnostics.Diagnostic `json:"messages"`
}

// Response converts a Mermaid or class-diagram result to its wire form.
func (r *Result) Response() (*Response, error) {
	resp := &Response{Messages: r.Diagnostics}
	if resp.Messages == nil {
		resp.Messages = []diagnostics.Diagnostic{}
	}
	if r.Failed() {
		return resp, nil
	}
	if r.Format != FormatMermaid && r.Format != FormatClass {
		return nil, fmt.Errorf("format %q has no wire form", r.Format)
	}
	text := string(r.Artifact)
	resp.MermaidGraph = &text
	return resp, nil
}
