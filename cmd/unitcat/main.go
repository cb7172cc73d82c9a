// Command unitcat builds the canonical unit-of-measurement catalog from the
// unit-definition sources and the prefix-expanded catalog, and can validate
// or publish a finished catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitcat/internal/build"
	"github.com/JonMunkholm/unitcat/internal/config"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/logging"
)

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	logLevel    string
	logFormat   string
	curatedFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := a.rootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unitcat",
		Short: "Build the canonical unit-of-measurement catalog",
		Long: `unitcat extracts unit definitions from the quantity source files,
assigns every property its reference unit, reconciles the result with the
prefix-expanded catalog and writes one JSON-lines record per unit.

Configuration comes from the environment (and a .env file when present);
flags override it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text|json (overrides LOG_FORMAT)")
	root.PersistentFlags().StringVar(&a.curatedFile, "curated", "", "YAML file replacing the embedded curated tables")

	root.AddCommand(a.buildCmd(), a.extractCmd(), a.validateCmd(), a.publishCmd(), a.schemaCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envLoaded := godotenv.Overload() == nil

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.curatedFile != "" {
		cfg.Curated.File = a.curatedFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded", "env_file", envLoaded, "config", cfg.String())
	return nil
}

func (a *app) pipeline() (*build.Pipeline, error) {
	var (
		tables *curated.Tables
		err    error
	)
	if a.cfg.Curated.File != "" {
		tables, err = curated.LoadFile(a.cfg.Curated.File)
	} else {
		tables, err = curated.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("curated tables: %w", err)
	}
	return build.New(tables)
}

// runContext attaches a fresh run ID to the command context.
func runContext(cmd *cobra.Command) context.Context {
	return logging.WithRunID(cmd.Context(), logging.NewRunID())
}

// report prints the end-of-run diagnostics when there are any.
func report(cmd *cobra.Command, c *diag.Collector) {
	if c == nil || c.Len() == 0 {
		return
	}
	if err := c.Report(cmd.ErrOrStderr()); err != nil {
		slog.Warn("failed to write diagnostics report", "error", err)
	}
}
