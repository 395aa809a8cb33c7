package explorer

import (
	"context"
	"sync"

	"github.com/matzehuels/irscope/pkg/client"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

// Converter turns source text into a wire response with offset annotations.
type Converter interface {
	Convert(ctx context.Context, src []byte) (*pipeline.Response, error)
}

// Local converts in-process.
type Local struct {
	Runner   *pipeline.Runner
	Language string
}

// Convert runs the pipeline in-process with offset annotations enabled.
func (l Local) Convert(ctx context.Context, src []byte) (*pipeline.Response, error) {
	return l.Runner.Convert(ctx, src, pipeline.Options{Language: l.Language, Offsets: true})
}

// Remote converts through an irscope backend.
type Remote struct {
	Client   *client.Client
	Language string
}

// Convert posts src to the backend and requests offset annotations.
func (r Remote) Convert(ctx context.Context, src []byte) (*pipeline.Response, error) {
	return r.Client.Convert(ctx, src, client.Request{Language: r.Language, Offsets: true})
}

// Outcome is the result of one scheduled conversion.
type Outcome struct {
	Seq      uint64
	Response *pipeline.Response
	Err      error
}

// Apply folds the outcome into s.
func (o Outcome) Apply(s State) State {
	if o.Err != nil {
		return s.ApplyError(o.Seq, o.Err)
	}
	return s.ApplyResult(o.Seq, o.Response)
}

// Scheduler runs conversions so that at most one is in flight: starting a
// conversion cancels the previous one. It is safe for concurrent use.
type Scheduler struct {
	conv Converter

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewScheduler returns a scheduler using conv.
func NewScheduler(conv Converter) *Scheduler {
	return &Scheduler{conv: conv}
}

// Run converts src as conversion seq, cancelling any earlier conversion
// still running. It blocks until the conversion finishes or is cancelled.
// A cancelled conversion reports its context error; State discards it as
// stale anyway.
func (s *Scheduler) Run(ctx context.Context, seq uint64, src []byte) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel, s.seq = cancel, seq
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	resp, err := s.conv.Convert(ctx, src)
	return Outcome{Seq: seq, Response: resp, Err: err}
}

// Stop cancels the in-flight conversion, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
