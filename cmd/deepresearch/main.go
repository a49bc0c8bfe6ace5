// Package main is the entrypoint for the deepresearch CLI, wiring commands and
// global configuration such as logging.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/shikanime-studio/deepresearch/cmd/deepresearch/app"
	"github.com/shikanime-studio/deepresearch/internal/config"
	"github.com/shikanime-studio/deepresearch/internal/logging"
	"github.com/spf13/cobra"
)

var logCloser io.Closer = io.NopCloser(nil)

// init configures the global logger using values from the application
// configuration.
func init() {
	cfg := config.New()
	h, closer := logging.NewHandler(os.Stderr, logging.Options{
		Level:     cfg.LogLevel(),
		Format:    cfg.LogFormat(),
		AddSource: cfg.LogSource(),
		File:      cfg.LogFile(),
	})
	logCloser = closer
	slog.SetDefault(slog.New(h))
}

// main constructs the root Cobra command, wires subcommands, and executes it.
func main() {
	rootCmd := &cobra.Command{
		Use:           "deepresearch",
		Short:         "Recursive LLM-driven web research",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg := config.New()
	rootCmd.AddCommand(app.NewResearchCmd(cfg))
	rootCmd.AddCommand(app.NewModelsCmd())
	err := rootCmd.Execute()
	_ = logCloser.Close()
	if err != nil {
		slog.Error("command execution failed", "err", err)
		os.Exit(1)
	}
}
