// Package config loads irscope settings from a TOML file, a .env file and
// IRSCOPE_* environment variables, in increasing order of precedence.
//
// A missing default config file is not an error; every setting has a
// default. An explicitly named file must exist.
//
// Example file:
//
//	log_level = "info"
//
//	[server]
//	addr = ":8080"
//	read_timeout = "30s"
//	max_body_bytes = 1048576
//
//	[analysis]
//	language = "kotlin"
//	library_roots = ["/opt/kotlin/lib/kotlin-stdlib.jar"]
//	timeout = "10s"
//	max_nodes = 5000
//
//	[diagnostics]
//	deny = ["is never used"]
//
//	[explorer]
//	debounce = "3s"
//	server = "http://localhost:8080"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/irscope/pkg/errors"
)

const appName = "irscope"

// Environment variables overriding file settings.
const (
	EnvAddr         = "IRSCOPE_ADDR"
	EnvLanguage     = "IRSCOPE_LANGUAGE"
	EnvLogLevel     = "IRSCOPE_LOG_LEVEL"
	EnvLibraryRoots = "IRSCOPE_LIBRARY_ROOTS"
)

// Config is the complete irscope configuration.
type Config struct {
	LogLevel    string            `toml:"log_level"`
	Server      ServerConfig      `toml:"server"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Explorer    ExplorerConfig    `toml:"explorer"`
}

// ServerConfig configures the HTTP backend.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// AnalysisConfig configures the analyzer and graph emission. It is
// read-only once the server or CLI has started.
type AnalysisConfig struct {
	Language     string        `toml:"language"`
	LibraryRoots []string      `toml:"library_roots"`
	Timeout      time.Duration `toml:"timeout"`
	MaxNodes     int           `toml:"max_nodes"`
}

// DiagnosticsConfig extends the diagnostics deny list.
type DiagnosticsConfig struct {
	Deny []string `toml:"deny"`
}

// ExplorerConfig configures the terminal explorer.
type ExplorerConfig struct {
	Debounce time.Duration `toml:"debounce"`
	// Server is the backend URL; empty converts in-process.
	Server string `toml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Analysis: AnalysisConfig{
			Language: "kotlin",
		},
		Explorer: ExplorerConfig{
			Debounce: 3 * time.Second,
		},
	}
}

// Load reads configuration. If path is empty, the default file
// (see [DefaultPath]) is used when it exists. A .env file in the working
// directory is loaded into the environment first, without overriding
// variables that are already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if p, ok := DefaultPath(); ok {
			path = p
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Analysis.Language = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLibraryRoots); v != "" {
		c.Analysis.LibraryRoots = filepath.SplitList(v)
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server timeouts cannot be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes cannot be negative")
	}
	if err := errors.ValidateLanguageName(c.Analysis.Language); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "analysis.language")
	}
	if c.Analysis.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.timeout cannot be negative")
	}
	if c.Analysis.MaxNodes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.max_nodes cannot be negative")
	}
	if c.Explorer.Debounce < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "explorer.debounce cannot be negative")
	}
	if c.Explorer.Server != "" {
		if err := errors.ValidateURL(c.Explorer.Server); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "explorer.server")
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log_level")
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// DefaultPath returns the first existing default config file:
// ./irscope.toml, then $XDG_CONFIG_HOME/irscope/config.toml
// (~/.config/irscope/config.toml).
func DefaultPath() (string, bool) {
	candidates := []string{appName + ".toml"}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// configDir returns the config directory using the XDG standard.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
