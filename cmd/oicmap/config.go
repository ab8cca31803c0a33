package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/config"
	"github.com/jackzampolin/oicmap/internal/home"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to path, or to config.yaml in the home
directory when no path is given. Existing files are kept unless --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path = h.ConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		if used := mgr.ConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# %s\n", used)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "# no config file found, showing defaults and environment")
		}
		return api.Output(mgr.Get().Redacted())
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key with its default and description",
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(config.DefaultEntries())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
