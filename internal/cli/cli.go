// Package cli implements the irscope command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/irscope/pkg/buildinfo"
	"github.com/matzehuels/irscope/pkg/config"
	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "irscope"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "irscope turns program syntax trees into annotated Mermaid graphs",
		Long: `irscope converts source code into a Mermaid graph of its syntax tree,
annotated with source offsets so that a cursor position can be projected back
onto the graph. It ships a converter, an HTTP backend and a terminal explorer.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./irscope.toml or ~/.config/irscope/config.toml)")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.highlightCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration and attaches the logger to the
// command context. --verbose wins over the configured log level.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level := cfg.Level()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	c.Logger.Debug("configuration loaded", "language", cfg.Analysis.Language, "roots", len(cfg.Analysis.LibraryRoots))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the loaded configuration.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(
		diagnostics.NewMapper(c.Config.Diagnostics.Deny...),
		c.Config.Analysis.LibraryRoots,
		c.Logger,
	)
}

// baseOptions returns pipeline options seeded from the configuration.
func (c *CLI) baseOptions() pipeline.Options {
	return pipeline.Options{
		Language: c.Config.Analysis.Language,
		MaxNodes: c.Config.Analysis.MaxNodes,
		Timeout:  c.Config.Analysis.Timeout,
		Logger:   c.Logger,
	}
}
