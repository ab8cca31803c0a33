package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the oicmap HTTP server",
	Long: `Start the oicmap HTTP server.

The server provides:
  - GET  /health          - server and provider status
  - GET  /api/style-guide - the constraints rendered into every prompt
  - GET  /api/prompts     - prompt templates with overrides applied
  - POST /api/mappings    - multipart "source" and "target" upload

The config file is watched: provider, prompt and style guide changes apply
without a restart.

Examples:
  oicmap serve                    # Start on the configured port (default 8080)
  oicmap serve --port 3000        # Start on custom port
  oicmap serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger(cfg.Log.Level)
		mgr.SetLogger(logger)

		if used := mgr.ConfigFileUsed(); used != "" {
			logger.Info("loaded config", "file", used)
		} else {
			logger.Info("no config file found, using defaults and environment")
		}

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          strconv.Itoa(port),
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
