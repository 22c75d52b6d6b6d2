package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trawl-tools/trawl/pkg/spec"
	"github.com/trawl-tools/trawl/pkg/util"
)

func newSchemaCmd() *cobra.Command {
	var saveFile string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate spec file JSON schema",
		Long: `Export the JSON Schema that spec files are validated against, for use
with editors and CI linters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging()

			if err := os.WriteFile(saveFile, spec.SchemaJSON(), 0644); err != nil {
				return fmt.Errorf("saving schema: %w", err)
			}
			util.Infof("Saved spec file schema as '%s'", saveFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&saveFile, "save", "s", "spec_file_schema.json",
		"Schema export filename")

	return cmd
}
