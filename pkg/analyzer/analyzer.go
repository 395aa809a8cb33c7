// Package analyzer parses source text into the representation tree.
//
// Parsing uses tree-sitter grammars registered in this package (see
// [Lookup]). A successful analysis yields one [tree.KindFile] root per
// input; a source with syntax errors, or one that is not valid UTF-8, yields
// no roots and error messages locating each problem. Hidden zero-width
// tokens inserted by a grammar do not count as syntax errors. Every analysis
// also reports logging and warning messages, which callers filter through
// pkg/diagnostics.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/source"
	"github.com/matzehuels/irscope/pkg/tree"
)

// Config configures an [Analyzer]. It is read-only once passed to [New].
type Config struct {
	// FileName labels the FILE root. Defaults to "input" plus the
	// language's first extension.
	FileName string

	// LibraryRoots are directories or archives the analysis would resolve
	// symbols against. Missing roots are reported as warnings.
	LibraryRoots []string
}

// Result is the outcome of one analysis. Roots is nil when the source could
// not be analyzed; Messages explains why.
type Result struct {
	Roots    []*tree.Node
	Messages []diagnostics.Message
}

// Failed reports whether the analysis produced no representation.
func (r *Result) Failed() bool { return r.Roots == nil }

func (r *Result) add(sev diagnostics.Severity, loc *diagnostics.Location, format string, args ...any) {
	r.Messages = append(r.Messages, diagnostics.Message{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

// Analyzer turns source text of one language into representation trees.
// An Analyzer holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	lang *Language
	cfg  Config
}

// New returns an analyzer for the named language.
func New(language string, cfg Config) (*Analyzer, error) {
	lang, err := Lookup(language)
	if err != nil {
		return nil, err
	}
	if cfg.FileName == "" {
		cfg.FileName = "input" + lang.Extensions[0]
	}
	cfg.LibraryRoots = append([]string(nil), cfg.LibraryRoots...)
	return &Analyzer{lang: lang, cfg: cfg}, nil
}

// Language returns the analyzer's language.
func (a *Analyzer) Language() *Language { return a.lang }

// Analyze parses src. Analysis problems are reported through the result's
// messages; the returned error is non-nil only when ctx ends first.
func (a *Analyzer) Analyze(ctx context.Context, src []byte) (*Result, error) {
	res := &Result{}
	res.add(diagnostics.SeverityLogging, nil, "analyzing %s (%d bytes) as %s", a.cfg.FileName, len(src), a.lang.Name)
	a.checkLibraryRoots(res)

	if bad := invalidUTF8(src); bad >= 0 {
		line, col := source.NewLineIndex(string(src)).Position(bad)
		res.add(diagnostics.SeverityError, &diagnostics.Location{Line: line, Column: col},
			"source is not valid UTF-8: byte 0x%02x at offset %d", src[bad], bad)
		return res, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(a.lang.Grammar())

	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, cerr
		}
		res.add(diagnostics.SeverityException, nil, "parser failed: %v", err)
		return res, nil
	}
	defer t.Close()

	root := t.RootNode()
	lines := source.NewLineIndex(string(src))
	if root.HasError() {
		if collectSyntaxErrors(root, src, lines, res) > 0 {
			return res, nil
		}
		// Only zero-width tokens the grammar inserts itself (for example
		// Kotlin's automatic semicolon) are flagged; every child is intact.
		res.add(diagnostics.SeverityLogging, nil, "parser inserted implicit tokens; tree kept")
	}

	c := &converter{ctx: ctx, lang: a.lang, src: src, fileName: a.cfg.FileName}
	roots, err := c.convert(root, false, nil)
	if err != nil {
		return nil, err
	}
	res.Roots = roots
	res.add(diagnostics.SeverityLogging, nil, "built %d representation nodes", tree.Count(roots...))
	return res, nil
}

func (a *Analyzer) checkLibraryRoots(res *Result) {
	for _, root := range a.cfg.LibraryRoots {
		if _, err := os.Stat(root); err != nil {
			res.add(diagnostics.SeverityWarning, nil, "%s: %s", diagnostics.NoiseMissingLibraryRoot, root)
		}
	}
}

func contextError(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "analysis timed out")
	default:
		return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "analysis canceled")
	}
}

// collectSyntaxErrors reports every ERROR and MISSING node reachable
// through the tree's children and returns how many it found. ERROR subtrees
// are not descended into so one bad region yields one message.
func collectSyntaxErrors(root *sitter.Node, src []byte, lines *source.LineIndex, res *Result) int {
	before := len(res.Messages)
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsError() || n.IsMissing() {
			line, col := lines.Position(int(n.StartByte()))
			loc := &diagnostics.Location{Line: line, Column: col}
			if n.IsMissing() {
				res.add(diagnostics.SeverityError, loc, "Syntax error: missing %s", n.Type())
			} else {
				res.add(diagnostics.SeverityError, loc, "Syntax error: unexpected %q", compact(n.Content(src), 40))
			}
			continue
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return len(res.Messages) - before
}

// invalidUTF8 returns the offset of the first byte that does not start a
// valid UTF-8 sequence, or -1.
func invalidUTF8(src []byte) int {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// compact collapses whitespace runs and truncates s to limit runes.
func compact(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}
