package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/config"
	"github.com/jackzampolin/oicmap/internal/mapping"
	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/providers"
)

var (
	genSource   string
	genTarget   string
	genOut      string
	genSave     bool
	genStrict   bool
	genProvider string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an XSLT mapping from a source and a target schema",
	Long: `Generate asks the configured model for an XSLT stylesheet that maps the
source document onto the target document.

Without --out or --save the full result is printed, including any text the
model wrote around the stylesheet.

Examples:
  oicmap generate --source order.json --target invoice.xml
  oicmap generate --source order.json --target invoice.xsd --out map.xslt --strict
  oicmap generate --source a.xml --target b.json --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger(cfg.Log.Level)

		source, err := readUpload(genSource)
		if err != nil {
			return err
		}
		target, err := readUpload(genTarget)
		if err != nil {
			return err
		}

		registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig(), logger)
		svc, _, err := buildService(cfg, registry, logger)
		if err != nil {
			return err
		}

		var opts []mapping.CallOption
		if cmd.Flags().Changed("strict") {
			opts = append(opts, mapping.WithStrict(genStrict))
		}
		if genProvider != "" {
			opts = append(opts, mapping.WithProvider(genProvider))
		}

		result, err := svc.Generate(cmd.Context(), source, target, opts...)
		if err != nil {
			return fmt.Errorf("%s", mapping.UserMessage(err))
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}

		out := genOut
		if out == "" && genSave {
			if err := h.EnsureExists(); err != nil {
				return err
			}
			out = h.MappingPath(mapping.FileName(source.Name, target.Name))
		}
		if out == "" {
			return api.Output(result)
		}

		if !result.Found {
			return fmt.Errorf("the model reply contained no stylesheet:\n%s", result.Remainder)
		}
		if err := os.WriteFile(out, []byte(result.XSLT), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genSource, "source", "", "source schema or sample (.json or .xml)")
	generateCmd.Flags().StringVar(&genTarget, "target", "", "target schema or sample (.json or .xml)")
	generateCmd.Flags().StringVar(&genOut, "out", "", "write the stylesheet to this file")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "write the stylesheet to the home mappings directory")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "reject stylesheets that are not well-formed (default from config)")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "provider name (default from config)")
	generateCmd.MarkFlagRequired("source")
	generateCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(generateCmd)
}

// buildService wires a mapping service and prompt resolver from config.
func buildService(cfg *config.Config, clients mapping.ClientSource, logger *slog.Logger) (*mapping.Service, *prompts.Resolver, error) {
	resolver := prompts.NewResolver(logger)
	xsltmap.RegisterPrompts(resolver)
	if err := resolver.SetOverrides(cfg.Prompts.OverrideMap()); err != nil {
		return nil, nil, fmt.Errorf("failed to apply prompt overrides: %w", err)
	}
	svc := mapping.NewService(clients, mapping.Options{
		Strict:     cfg.Defaults.Strict,
		StyleGuide: cfg.StyleGuide,
		Provider:   cfg.Defaults.LLMProvider,
		Builder:    xsltmap.NewBuilder(resolver),
		Logger:     logger,
	})
	return svc, resolver, nil
}

func readUpload(path string) (mapping.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapping.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return mapping.Upload{Name: filepath.Base(path), Data: data}, nil
}
