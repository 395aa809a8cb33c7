// Package server implements the irscope HTTP backend.
//
// # Routes
//
//	GET  /api/isalive                               liveness check, answers "OK"
//	POST /api/kotlinToMermaid?withOffsetComment=…   Kotlin source → Mermaid
//	POST /api/convert?lang=…&withOffsetComment=…    any supported language
//
// The conversion routes take the raw source as request body and answer with
// a [pipeline.Response]. A source the analyzer cannot handle is answered with
// status 200, a null mermaidGraph and the analyzer's diagnostics; that
// includes bodies that are not valid UTF-8. Only transport problems
// (oversized bodies, unknown languages, timeouts) produce error statuses,
// with a JSON body {"error", "code"}. The withOffsetComment flag is true
// only when it reads "true" in any case.
//
// Requests are independent. The server holds only read-only configuration
// and may serve any number of conversions concurrently.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/irscope/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Options configures a [Server]. Zero values select defaults.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxBodyBytes limits request bodies; 0 selects 1 MiB.
	MaxBodyBytes int64

	// Language is the default for /api/convert without a lang parameter.
	Language string
	// Timeout bounds each conversion; 0 means no bound.
	Timeout  time.Duration
	MaxNodes int

	Runner *pipeline.Runner
	Logger *log.Logger
}

// Server serves conversions over HTTP.
type Server struct {
	opts    Options
	runner  *pipeline.Runner
	logger  *log.Logger
	handler http.Handler
}

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Language == "" {
		opts.Language = pipeline.DefaultLanguage
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}

	s := &Server{opts: opts, runner: opts.Runner, logger: opts.Logger}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler, for use with httptest or a custom
// http.Server.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/isalive", s.handleIsAlive)
		r.Post("/kotlinToMermaid", s.handleKotlinToMermaid)
		r.Post("/convert", s.handleConvert)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully,
// letting in-flight conversions finish within a bounded grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
