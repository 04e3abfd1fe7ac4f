package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/dentseed/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the practice tables",
	Long: `
Apply the bundled DDL for the configured provider. Tables that already
exist are left alone. Use --print to show the DDL without connecting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if printDDL, _ := cmd.Flags().GetBool("print"); printDDL {
			ddl, err := schema.DDL(cfg.Database.Provider)
			if err != nil {
				return err
			}
			fmt.Print(ddl)
			return nil
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ApplySchema(ctx); err != nil {
			return err
		}
		color.Green("✅ Schema applied (%s)", st.Dialect())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().Bool("print", false, "Print the DDL instead of applying it")
}
