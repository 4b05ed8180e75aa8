package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/scene"
	"github.com/haivivi/equivocal/pkg/storage"
)

var (
	exportTo   string
	importFrom string
)

// openModels opens the export location: the flag value, or the configured
// one.
func openModels(e *env, location string) (storage.FileStore, string, error) {
	if location == "" {
		location = e.cfg.ExportLocation()
	}
	fs, err := storage.Open(location, e.cfg.Export.S3)
	if err != nil {
		return nil, "", err
	}
	return fs, location, nil
}

func modelName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return scene.DefaultModelFile
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export learned sounds and soundscapes as JSON",
	Long: `Write every learned sound and stored soundscape to a JSON model file
(default ` + scene.DefaultModelFile + `).

The location is a local directory, file:// URI or s3://bucket/prefix, from
--to or export.location in config.yaml.

Examples:
  equivocal export
  equivocal export forest.json --to ./models
  equivocal export --to s3://my-bucket/equivocal`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		fs, location, err := openModels(e, exportTo)
		if err != nil {
			return err
		}
		name := modelName(args)
		doc, err := e.engine.Export(cmd.Context(), fs, name)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Exported %d sounds and %d soundscapes to %s/%s",
			len(doc.AtomicSounds), len(doc.Soundscapes), location, name)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import sounds and soundscapes from a JSON model file",
	Long: `Load a model file written by 'equivocal export'. Imported sounds
replace learned sounds of the same name. Slightly malformed JSON, such as
trailing commas or a truncated file, is repaired before loading.

Examples:
  equivocal import
  equivocal import forest.json --from ./models`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		fs, location, err := openModels(e, importFrom)
		if err != nil {
			return err
		}
		name := modelName(args)
		doc, err := e.engine.Import(cmd.Context(), fs, name)
		if err != nil {
			return fmt.Errorf("import %s/%s: %w", location, name, err)
		}
		cli.PrintSuccess("Imported %d sounds and %d soundscapes from %s/%s",
			len(doc.AtomicSounds), len(doc.Soundscapes), location, name)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of model files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scene.Schema()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		if outputFile != "" {
			return cli.OutputBytes(append(data, '\n'), outputFile)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "export location (directory, file:// or s3:// URI)")
	importCmd.Flags().StringVar(&importFrom, "from", "", "import location (directory, file:// or s3:// URI)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(schemaCmd)
}
