// Package normalize coerces raw source rows into typed transactions.
//
// Normalization never drops a row: unparsable amounts become zero,
// unparsable timestamps become nil, and missing strings get their
// documented defaults. Only a missing column in the header is fatal.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fapiaoflow/fapiaoflow/internal/common"
	"github.com/fapiaoflow/fapiaoflow/internal/model"
	"github.com/fapiaoflow/fapiaoflow/internal/source"
)

// IndividualCompany is the sentinel written when a record has no
// purchasing company, meaning the payer is an individual.
const IndividualCompany = "个人"

// timeLayouts are tried in order when parsing the created-at column.
// Covers the formats the order-export systems are known to emit.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"01-02-06 15:04",
}

// ColumnMapping names the source table columns carrying each semantic
// field. Defaults match the headers of the meal-service order export.
type ColumnMapping struct {
	Amount    string
	TaxID     string
	Company   string
	Biller    string
	CreatedAt string
	OrderID   string
	Location  string
}

// DefaultColumns returns the column mapping for the standard order export.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Amount:    "金额",
		TaxID:     "税号",
		Company:   "公司主体",
		Biller:    "开票人",
		CreatedAt: "创建时间",
		OrderID:   "订单号",
		Location:  "消费地点",
	}
}

// Validate checks that every semantic field has a column name assigned.
func (m ColumnMapping) Validate() error {
	for _, col := range []struct{ field, name string }{
		{"amount", m.Amount},
		{"tax_id", m.TaxID},
		{"company", m.Company},
		{"biller", m.Biller},
		{"created_at", m.CreatedAt},
		{"order_id", m.OrderID},
		{"location", m.Location},
	} {
		if col.name == "" {
			return fmt.Errorf("%w: no column mapped for %s", common.ErrInvalidConfig, col.field)
		}
	}
	return nil
}

// columns lists the mapped column names in a fixed order.
func (m ColumnMapping) columns() []string {
	return []string{m.Amount, m.TaxID, m.Company, m.Biller, m.CreatedAt, m.OrderID, m.Location}
}

// Records converts every row of the table into a transaction.
//
// A missing required column aborts the run before any per-row work; all
// per-field coercion failures are recovered with defaults so that every
// row enters grouping.
func Records(table *source.Table, cols ColumnMapping) ([]model.Transaction, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	for _, name := range cols.columns() {
		if !table.HasColumn(name) {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingColumn, name)
		}
	}

	records := make([]model.Transaction, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, normalizeRow(row, cols))
	}

	return records, nil
}

func normalizeRow(row source.Row, cols ColumnMapping) model.Transaction {
	// String fields pass through verbatim: the grouping key is exact
	// string equality with no whitespace normalization, so records
	// differing only by surrounding whitespace are distinct invoices.
	tx := model.Transaction{
		Amount:   parseAmount(row[cols.Amount]),
		TaxID:    row[cols.TaxID],
		Biller:   row[cols.Biller],
		OrderID:  row[cols.OrderID],
		Location: row[cols.Location],
	}

	// The individual-payer sentinel substitutes for a missing company
	// only; a whitespace-only company is a present value and kept as-is.
	tx.Company = row[cols.Company]
	if tx.Company == "" {
		tx.Company = IndividualCompany
	}

	tx.CreatedAt = parseTime(row[cols.CreatedAt])

	return tx
}

// parseAmount parses a decimal amount, defaulting to zero on failure so
// the record still participates in aggregation.
func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Debug("Unparsable amount defaulted to zero", "value", raw)
		return decimal.Zero
	}
	return amount
}

// parseTime parses a timestamp, returning nil when no known layout
// matches. Nil timestamps are excluded from date-range computation.
func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}

	slog.Debug("Unparsable timestamp ignored", "value", raw)
	return nil
}
