package cli

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/highlight"
	"github.com/matzehuels/irscope/pkg/source"
)

type highlightOpts struct {
	offset int
	at     string // "line:column", resolved against source
	source string
	strip  bool
	output string
}

// highlightCommand creates the highlight command projecting a cursor onto an
// annotated graph file.
func (c *CLI) highlightCommand() *cobra.Command {
	opts := highlightOpts{offset: -1}

	cmd := &cobra.Command{
		Use:   "highlight [graph.mmd]",
		Short: "Highlight the nodes containing a source offset",
		Long: `Highlight the nodes of an annotated graph (from 'convert --offsets') that
contain a cursor position, and print the graph without offset annotations.

The cursor is a byte offset (--offset) or a line:column pair (--at) resolved
against the original source file (--source). Use --strip to only remove the
annotations. Reads stdin when no file is given.`,
		Example: `  irscope convert --offsets main.kt > main.mmd
  irscope highlight main.mmd --offset 21
  irscope highlight main.mmd --at 3:9 --source main.kt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runHighlight(cmd.InOrStdin(), cmd.OutOrStdout(), path, opts)
		},
	}

	cmd.Flags().IntVar(&opts.offset, "offset", -1, "cursor byte offset")
	cmd.Flags().StringVar(&opts.at, "at", "", "cursor as line:column (needs --source)")
	cmd.Flags().StringVar(&opts.source, "source", "", "source file the graph was converted from")
	cmd.Flags().BoolVar(&opts.strip, "strip", false, "only strip offset annotations")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.MarkFlagsMutuallyExclusive("offset", "at", "strip")

	return cmd
}

func runHighlight(stdin io.Reader, stdout io.Writer, path string, opts highlightOpts) error {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read graph")
	}
	text := string(data)

	var out string
	if opts.strip {
		out = highlight.Strip(text)
	} else {
		offset, err := cursorOffset(opts)
		if err != nil {
			return err
		}
		ix := highlight.ParseIndex(text)
		if ix.Len() == 0 {
			printWarning("graph carries no offset annotations; convert with --offsets")
		}
		p := highlight.ProjectIndex(text, ix, offset)
		if len(p.IDs) == 0 {
			printInfo("no node contains offset %d", offset)
		} else {
			printInfo("offset %d is inside %s", offset, StyleHighlight.Render(strings.Join(p.IDs, " > ")))
		}
		out = p.Text
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if opts.output != "" {
		return os.WriteFile(opts.output, []byte(out), 0o644)
	}
	_, err = io.WriteString(stdout, out)
	return err
}

// cursorOffset resolves --offset or --at to a byte offset.
func cursorOffset(opts highlightOpts) (int, error) {
	if opts.at == "" {
		if opts.offset < 0 {
			return 0, errors.New(errors.ErrCodeInvalidOffset, "one of --offset, --at or --strip is required")
		}
		return opts.offset, nil
	}
	if opts.source == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "--at needs --source")
	}
	line, col, err := parseLineColumn(opts.at)
	if err != nil {
		return 0, err
	}
	src, err := os.ReadFile(opts.source)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "read source")
	}
	off, ok := source.NewLineIndex(string(src)).Offset(line, col)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidOffset, "%s is outside %s", opts.at, opts.source)
	}
	return off, nil
}

func parseLineColumn(s string) (line, col int, err error) {
	l, c, ok := strings.Cut(s, ":")
	if ok {
		line, err = strconv.Atoi(l)
		if err == nil {
			col, err = strconv.Atoi(c)
		}
	}
	if !ok || err != nil || line < 1 || col < 1 {
		return 0, 0, errors.New(errors.ErrCodeInvalidOffset, "invalid position %q (want line:column)", s)
	}
	return line, col, nil
}
