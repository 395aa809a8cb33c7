package pipeline

import (
	"context"

	"github.com/matzehuels/irscope/pkg/analyzer"
	"github.com/matzehuels/irscope/pkg/errors"
)

// Analyze runs the analyzer for opts.Language over src.
func Analyze(ctx context.Context, src []byte, opts Options, libraryRoots []string) (*analyzer.Result, error) {
	a, err := analyzer.New(opts.Language, analyzer.Config{
		FileName:     opts.FileName,
		LibraryRoots: libraryRoots,
	})
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, src)
}

// contextError converts a finished context into a coded error.
func contextError(ctx context.Context, stage string) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s timed out", stage)
	default:
		return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "%s canceled", stage)
	}
}
