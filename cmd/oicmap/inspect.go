package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/schemadoc"
)

// inspectResult is what inspect prints for one file.
type inspectResult struct {
	Name     string           `json:"name" yaml:"name"`
	Format   schemadoc.Format `json:"format" yaml:"format"`
	Kind     schemadoc.Kind   `json:"kind" yaml:"kind"`
	Label    string           `json:"label" yaml:"label"`
	Document any              `json:"document" yaml:"document"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show how a schema file is normalized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		upload, err := readUpload(args[0])
		if err != nil {
			return err
		}
		doc, err := schemadoc.Normalize(upload.Name, upload.Data)
		if err != nil {
			return fmt.Errorf("failed to normalize %s: %w", args[0], err)
		}
		return api.Output(inspectResult{
			Name:     doc.Name(),
			Format:   doc.Format(),
			Kind:     doc.Kind(),
			Label:    doc.Kind().Label(),
			Document: doc.Fold(),
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
