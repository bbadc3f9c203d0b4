package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hostflow/hostflow/internal/ui"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "sync",
	Short:   "Export the full snapshot",
	Long: `Write the complete account snapshot to a file or stdout.

The JSON form is byte-compatible with what the cloud store holds; the
YAML form is for humans and spreadsheets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		snap := app.Store.Snapshot()

		var data []byte
		switch exportFormat {
		case "json":
			data, err = json.MarshalIndent(snap, "", "  ")
		case "yaml":
			data, err = yaml.Marshal(snap)
		default:
			return fmt.Errorf("format must be json or yaml")
		}
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}

		if exportOutput == "" || exportOutput == "-" {
			fmt.Println(string(data))
			return nil
		}

		if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("%s Snapshot written to %s\n", ui.RenderPass("✓"), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
