package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/config"
	"github.com/jackzampolin/oicmap/internal/home"
	"github.com/jackzampolin/oicmap/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "oicmap",
	Short: "Generate OIC Gen3 XSLT mappings from two schemas with an LLM",
	Long: `oicmap turns a source and a target schema (JSON or XML, samples or
schemas) into an XSLT 1.0 stylesheet suitable for Oracle Integration Cloud
Gen3 mappers, by asking a hosted chat model.

It runs one-shot from the command line (oicmap generate) or as an HTTP
server (oicmap serve) that accepts uploads and offers the stylesheet as a
.xslt download.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.oicmap/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "oicmap home directory (default: ~/.oicmap)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the config manager from --config, ./config.yaml or
// the home directory, in that order.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := config.NewManager(cfgFile, ".", h.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, h, nil
}

// newLogger returns a text logger on stderr at the configured level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
