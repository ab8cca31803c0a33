package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/providers"
)

var (
	promptSource string
	promptTarget string
)

// promptResult is the request that generate would send.
type promptResult struct {
	Fingerprint string              `json:"fingerprint" yaml:"fingerprint"`
	Messages    []providers.Message `json:"messages" yaml:"messages"`
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the messages generate would send, without calling the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		source, err := readUpload(promptSource)
		if err != nil {
			return err
		}
		target, err := readUpload(promptTarget)
		if err != nil {
			return err
		}

		cfg := mgr.Get()
		svc, _, err := buildService(cfg, providers.NewRegistry(), newLogger(cfg.Log.Level))
		if err != nil {
			return err
		}
		req, err := svc.Prepare(source, target)
		if err != nil {
			return err
		}
		return api.Output(promptResult{Fingerprint: req.Fingerprint, Messages: req.Messages})
	},
}

var promptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt templates with configured overrides applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		_, resolver, err := buildService(cfg, providers.NewRegistry(), newLogger(cfg.Log.Level))
		if err != nil {
			return err
		}
		return api.Output(resolver.All())
	},
}

func init() {
	promptCmd.Flags().StringVar(&promptSource, "source", "", "source schema or sample (.json or .xml)")
	promptCmd.Flags().StringVar(&promptTarget, "target", "", "target schema or sample (.json or .xml)")
	promptCmd.MarkFlagRequired("source")
	promptCmd.MarkFlagRequired("target")

	promptCmd.AddCommand(promptListCmd)
	rootCmd.AddCommand(promptCmd)
}
