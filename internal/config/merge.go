// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/fapiaoflow/fapiaoflow/internal/common"
	"github.com/fapiaoflow/fapiaoflow/internal/normalize"
)

// Merge holds every parameter of one consolidation run.
type Merge struct {
	TaxCode        string
	TaxRate        string
	ItemName       string
	BasicSheet     string
	DetailSheet    string
	OutputDir      string
	Columns        normalize.ColumnMapping
	BasicStartRow  int
	DetailStartRow int
}

// DefaultMerge returns the defaults of the standard catering template.
func DefaultMerge() Merge {
	return Merge{
		TaxCode:        "3070401000000000000",
		TaxRate:        "0.06",
		ItemName:       "餐饮服务",
		BasicSheet:     "1-发票基本信息",
		DetailSheet:    "2-发票明细信息",
		BasicStartRow:  4,
		DetailStartRow: 4,
		Columns:        normalize.DefaultColumns(),
	}
}

// LoadMerge loads merge configuration with this precedence:
// 1. Viper configuration (from config file or FAPIAO_ env vars)
// 2. Direct environment variables (FAPIAO_*)
// 3. Default values
func LoadMerge() (*Merge, error) {
	cfg := DefaultMerge()

	if v := viper.GetString("merge.tax_code"); v != "" {
		cfg.TaxCode = v
	}
	if v := viper.GetString("merge.tax_rate"); v != "" {
		cfg.TaxRate = v
	}
	if v := viper.GetString("merge.item_name"); v != "" {
		cfg.ItemName = v
	}
	if v := viper.GetString("merge.basic_sheet"); v != "" {
		cfg.BasicSheet = v
	}
	if v := viper.GetString("merge.detail_sheet"); v != "" {
		cfg.DetailSheet = v
	}
	if v := viper.GetInt("merge.basic_start_row"); v > 0 {
		cfg.BasicStartRow = v
	}
	if v := viper.GetInt("merge.detail_start_row"); v > 0 {
		cfg.DetailStartRow = v
	}
	if v := viper.GetString("merge.output_dir"); v != "" {
		cfg.OutputDir = v
	}

	loadColumns(&cfg.Columns)

	// Override with direct environment variables if not set via Viper.
	if v := os.Getenv("FAPIAO_TAX_CODE"); v != "" && !viper.IsSet("merge.tax_code") {
		cfg.TaxCode = v
	}
	if v := os.Getenv("FAPIAO_ITEM_NAME"); v != "" && !viper.IsSet("merge.item_name") {
		cfg.ItemName = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadColumns(cols *normalize.ColumnMapping) {
	if v := viper.GetString("columns.amount"); v != "" {
		cols.Amount = v
	}
	if v := viper.GetString("columns.tax_id"); v != "" {
		cols.TaxID = v
	}
	if v := viper.GetString("columns.company"); v != "" {
		cols.Company = v
	}
	if v := viper.GetString("columns.biller"); v != "" {
		cols.Biller = v
	}
	if v := viper.GetString("columns.created_at"); v != "" {
		cols.CreatedAt = v
	}
	if v := viper.GetString("columns.order_id"); v != "" {
		cols.OrderID = v
	}
	if v := viper.GetString("columns.location"); v != "" {
		cols.Location = v
	}
}

// Validate checks structural sanity. The tax rate is deliberately not
// validated: it is written to the template verbatim.
func (m *Merge) Validate() error {
	if m.BasicSheet == "" || m.DetailSheet == "" {
		return fmt.Errorf("%w: sheet names must not be empty", common.ErrInvalidConfig)
	}
	if m.BasicStartRow < 1 || m.DetailStartRow < 1 {
		return fmt.Errorf("%w: start rows must be 1-based", common.ErrInvalidConfig)
	}
	if m.ItemName == "" {
		return fmt.Errorf("%w: item name must not be empty", common.ErrInvalidConfig)
	}
	return m.Columns.Validate()
}
