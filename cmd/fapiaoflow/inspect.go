package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fapiaoflow/fapiaoflow/internal/aggregate"
	"github.com/fapiaoflow/fapiaoflow/internal/cli"
	"github.com/fapiaoflow/fapiaoflow/internal/config"
	"github.com/fapiaoflow/fapiaoflow/internal/group"
	"github.com/fapiaoflow/fapiaoflow/internal/model"
	"github.com/fapiaoflow/fapiaoflow/internal/normalize"
	"github.com/fapiaoflow/fapiaoflow/internal/source"
)

func init() {
	inspectCmd := &cobra.Command{
		Use:   "inspect <source>",
		Short: "Analyze a source table without touching any template",
		Long: `Parse, normalize and group a source table, then print the per-group
analysis: member counts, date ranges and amount totals. Useful for
checking an order export before running a merge.

Examples:
  fapiaoflow inspect orders.xlsx
  fapiaoflow inspect orders.csv --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	inspectCmd.Flags().BoolP("verbose", "v", false, "show every member record per group")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.LoadMerge()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	table, err := source.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load source table: %w", err)
	}

	records, err := normalize.Records(table, cfg.Columns)
	if err != nil {
		return fmt.Errorf("failed to normalize records: %w", err)
	}

	groups := group.ByKey(records)

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("📊 %s", args[0])))
	fmt.Printf("记录 %d 行，分组 %d 个\n\n", len(records), len(groups))

	zeroGroups := 0
	grandTotal := decimal.Zero
	for i, g := range groups {
		entry := aggregate.Entry(g, cfg.ItemName)
		if entry == nil {
			zeroGroups++
			fmt.Printf("%2d. %s\n", i+1, cli.WarningStyle.Render(describeSkippedGroup(g)))
			continue
		}

		grandTotal = grandTotal.Add(entry.TotalAmount)
		fmt.Printf("%2d. %s | %s | 税号 %s\n", i+1, entry.Serial, entry.Company, orDash(entry.TaxID))
		fmt.Printf("    金额 %s  共 %d 笔  %s\n", entry.TotalAmount.String(), entry.MemberCount, entry.Memo)

		if verbose {
			for _, member := range g.Members {
				fmt.Printf("      - 订单 %s  金额 %s\n", member.OrderID, member.Amount.String())
			}
		}
	}

	fmt.Println()
	fmt.Printf("合计金额: %s\n", grandTotal.String())
	if zeroGroups > 0 {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("零金额分组 %d 个，合并时将被跳过", zeroGroups)))
	}

	return nil
}

func describeSkippedGroup(g model.Group) string {
	return fmt.Sprintf("%s | %s — 金额合计为 0，将跳过", orDash(g.Key.Biller), g.Key.Company)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
