package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/dentseed/internal/audit"
	"github.com/Lumos-Labs-HQ/dentseed/internal/export"
	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store/memstore"
)

var seedFlags struct {
	seed         int64
	offices      int
	guardians    int
	companies    int
	unpaid       float64
	truncate     bool
	schema       bool
	dryRun       bool
	verify       bool
	export       string
	exportFormat string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate and insert synthetic practice data",
	Long: `
Run every seeding stage in dependency order: offices, dentists, guardians,
patients, insurance companies, plans, patient coverage, appointments,
procedures, invoices and payments.

Volumes come from the "seed" section of the config file; the flags below
override the most common ones.

Examples:
  dentseed seed
  dentseed seed --seed 42 --truncate
  dentseed seed --dry-run --verify --export out --export-format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := cfg.Seed
		flags := cmd.Flags()
		if flags.Changed("seed") {
			opts.RandomSeed = seedFlags.seed
		}
		if flags.Changed("offices") {
			opts.OfficeCount = seedFlags.offices
		}
		if flags.Changed("guardians") {
			opts.GuardianCount = seedFlags.guardians
		}
		if flags.Changed("companies") {
			opts.InsuranceCompanyCount = seedFlags.companies
		}
		if flags.Changed("unpaid") {
			opts.UnpaidInvoiceLikelihood = seedFlags.unpaid
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()

		var st store.Store
		if seedFlags.dryRun {
			color.Yellow("🧪 Dry run: rows are kept in memory only")
			st = memstore.New()
		} else {
			sqlStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer sqlStore.Close()

			if seedFlags.schema {
				color.Cyan("📐 Applying %s schema...", sqlStore.Dialect())
				if err := sqlStore.ApplySchema(ctx); err != nil {
					return err
				}
			}
			st = sqlStore
		}

		s := seeder.New(st, log, seeder.WithStageHook(printStage))

		if seedFlags.truncate {
			if err := s.Truncate(ctx); err != nil {
				return fmt.Errorf("failed to truncate tables: %w", err)
			}
		}

		start := time.Now()
		if err := s.Run(ctx, opts); err != nil {
			color.Red("❌ Seeding failed")
			return err
		}
		color.Green("🌱 Seeding completed in %s", time.Since(start).Round(time.Millisecond))

		if seedFlags.verify {
			report, err := audit.Run(ctx, st)
			if err != nil {
				return err
			}
			if err := printReport(report); err != nil {
				return err
			}
		}

		if seedFlags.export != "" {
			path, err := export.Perform(ctx, st, seeder.InsertionOrder(), seedFlags.export, seedFlags.exportFormat)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Export completed: %s\n", path)
		}
		return nil
	},
}

func printStage(r seeder.StageReport) {
	fmt.Printf("  %s %-26s %6d rows  %s\n",
		color.GreenString("✓"), r.Stage, r.Rows, color.HiBlackString(r.Elapsed.Round(time.Microsecond).String()))
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int64Var(&seedFlags.seed, "seed", 0, "Random seed for a reproducible run (0 = random)")
	seedCmd.Flags().IntVar(&seedFlags.offices, "offices", 0, "Number of offices")
	seedCmd.Flags().IntVar(&seedFlags.guardians, "guardians", 0, "Number of guardians")
	seedCmd.Flags().IntVar(&seedFlags.companies, "companies", 0, "Number of insurance companies")
	seedCmd.Flags().Float64Var(&seedFlags.unpaid, "unpaid", 0, "Likelihood that an appointment gets no invoice")
	seedCmd.Flags().BoolVar(&seedFlags.truncate, "truncate", false, "Empty all seeded tables first")
	seedCmd.Flags().BoolVar(&seedFlags.schema, "schema", false, "Create missing tables first")
	seedCmd.Flags().BoolVar(&seedFlags.dryRun, "dry-run", false, "Seed an in-memory store instead of the database")
	seedCmd.Flags().BoolVar(&seedFlags.verify, "verify", false, "Audit the seeded rows afterwards")
	seedCmd.Flags().StringVar(&seedFlags.export, "export", "", "Directory to export the seeded rows to")
	seedCmd.Flags().StringVar(&seedFlags.exportFormat, "export-format", export.FormatJSON, "Export format: json, yaml or csv")
}
