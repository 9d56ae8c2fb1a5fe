package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fapiaoflow/fapiaoflow/internal/cli"
	"github.com/fapiaoflow/fapiaoflow/internal/common"
	"github.com/fapiaoflow/fapiaoflow/internal/config"
	"github.com/fapiaoflow/fapiaoflow/internal/engine"
	"github.com/fapiaoflow/fapiaoflow/internal/project"
)

func init() {
	mergeCmd := &cobra.Command{
		Use:   "merge <source> <template>",
		Short: "Merge billing records into the invoice template",
		Long: `Merge per-transaction billing records from a source table (CSV or XLSX)
into the invoice template workbook, one consolidated entry per unique
(biller, company, tax id) combination.

The filled template is saved next to the source file with a timestamped
name; the template itself is never modified on disk.

Examples:
  # Merge with default parameters (catering tax code, 6% rate)
  fapiaoflow merge orders.xlsx 导入开票模板.xlsx

  # Override invoice parameters
  fapiaoflow merge orders.csv template.xlsx --tax-rate 0.03 --item-name 会议服务

  # Template variant with basic-info rows starting at row 6
  fapiaoflow merge orders.csv template.xlsx --basic-start-row 6

  # Preview without writing any file
  fapiaoflow merge orders.csv template.xlsx --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: runMerge,
	}

	mergeCmd.Flags().String("tax-code", "", "tax classification code written to every detail row")
	mergeCmd.Flags().String("tax-rate", "", "tax rate written verbatim to every detail row")
	mergeCmd.Flags().String("item-name", "", "item name used in detail rows and memo text")
	mergeCmd.Flags().Int("basic-start-row", 0, "first data row of the basic-info sheet (template variants use 4 or 6)")
	mergeCmd.Flags().Int("detail-start-row", 0, "first data row of the detail sheet")
	mergeCmd.Flags().String("output-dir", "", "directory for the output file (default: source file's directory)")
	mergeCmd.Flags().BoolP("dry-run", "d", false, "run the full pipeline without saving")
	mergeCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadMerge()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyMergeFlags(cmd, cfg)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	opts := engine.RunOptions{
		SourcePath:   args[0],
		TemplatePath: args[1],
		OutputDir:    cfg.OutputDir,
		Params: project.Params{
			TaxCode:  cfg.TaxCode,
			TaxRate:  cfg.TaxRate,
			ItemName: cfg.ItemName,
		},
		Projection: project.Config{
			BasicSheet:     cfg.BasicSheet,
			DetailSheet:    cfg.DetailSheet,
			BasicStartRow:  cfg.BasicStartRow,
			DetailStartRow: cfg.DetailStartRow,
		},
		Columns:      cfg.Columns,
		DryRun:       dryRun,
		ShowProgress: !noProgress,
	}

	summary, err := engine.New(nil).Run(cmd.Context(), opts)
	if err != nil {
		return common.NewUserError("合并处理失败", err)
	}

	fmt.Println(cli.RenderSummary(summary))

	return nil
}

// applyMergeFlags lets explicit command-line flags override the loaded
// configuration.
func applyMergeFlags(cmd *cobra.Command, cfg *config.Merge) {
	if v, _ := cmd.Flags().GetString("tax-code"); v != "" {
		cfg.TaxCode = v
	}
	if v, _ := cmd.Flags().GetString("tax-rate"); v != "" {
		cfg.TaxRate = v
	}
	if v, _ := cmd.Flags().GetString("item-name"); v != "" {
		cfg.ItemName = v
	}
	if v, _ := cmd.Flags().GetInt("basic-start-row"); v > 0 {
		cfg.BasicStartRow = v
	}
	if v, _ := cmd.Flags().GetInt("detail-start-row"); v > 0 {
		cfg.DetailStartRow = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
}
