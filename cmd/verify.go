package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/dentseed/internal/audit"
	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the seeded data for consistency",
	Long: `
Read every seeded table back and check referential integrity, coverage
windows, invoice totals, discounts and payment balances.
Exits with an error when any rule is broken.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := audit.Run(ctx, st)
		if err != nil {
			return err
		}
		return printReport(report)
	},
}

func printReport(report *audit.Report) error {
	color.Cyan("📋 Rows per table:")
	for _, table := range seeder.InsertionOrder() {
		fmt.Printf("  %-22s %6d\n", table, report.Counts[table])
	}

	if report.OK() {
		color.Green("✅ No violations found")
		return nil
	}

	color.Red("❌ %d violation(s):", len(report.Violations))
	for _, v := range report.Violations {
		fmt.Printf("  %s\n", v)
	}
	return fmt.Errorf("audit found %d violation(s)", len(report.Violations))
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
