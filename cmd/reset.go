package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all seeded rows",
	Long: `
Empty every seeded table, children before parents, and restart the id
sequences. Tables are kept.

⚠️  WARNING: This permanently deletes the data in those tables!

Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force && !askConfirmation("Delete all rows from the seeded tables?") {
			fmt.Println("❌ Reset cancelled")
			return nil
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := seeder.New(st, log).Truncate(ctx); err != nil {
			return err
		}
		color.Green("✅ Reset completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
}
