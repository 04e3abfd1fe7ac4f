package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/dentseed/internal/export"
	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the seeded tables",
	Long: `
Export every seeded table in dependency order.
Supported formats: json (default), yaml, csv

Examples:
  dentseed export
  dentseed export --csv
  dentseed export --yaml --out snapshots`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format := export.FormatJSON
		if csv, _ := cmd.Flags().GetBool("csv"); csv {
			format = export.FormatCSV
		} else if yml, _ := cmd.Flags().GetBool("yaml"); yml {
			format = export.FormatYAML
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.ExportPath
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		path, err := export.Perform(ctx, st, seeder.InsertionOrder(), out, format)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Export completed: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolP("json", "j", false, "Export as JSON (default)")
	exportCmd.Flags().BoolP("yaml", "y", false, "Export as YAML")
	exportCmd.Flags().BoolP("csv", "c", false, "Export as CSV")
	exportCmd.Flags().StringP("out", "o", "", "Output directory (default export_path from config)")
}
