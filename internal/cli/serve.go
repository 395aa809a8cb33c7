package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/irscope/pkg/server"
)

// serveCommand creates the serve command running the HTTP backend.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Long: `Run the HTTP backend used by browser frontends and 'irscope explore --server'.

Routes:
  GET  /api/isalive
  POST /api/kotlinToMermaid?withOffsetComment=true|false
  POST /api/convert?lang=kotlin|go&withOffsetComment=true|false

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.Config

	srv := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Language:     cfg.Analysis.Language,
		Timeout:      cfg.Analysis.Timeout,
		MaxNodes:     cfg.Analysis.MaxNodes,
		Runner:       c.newRunner(),
		Logger:       loggerFromContext(ctx),
	})
	printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
	return srv.ListenAndServe(ctx)
}
