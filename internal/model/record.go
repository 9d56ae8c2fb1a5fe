// Package model defines the core domain types for invoice consolidation.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single normalized billing record from the source table.
type Transaction struct {
	CreatedAt *time.Time // nil when the source timestamp could not be parsed
	TaxID     string
	Company   string
	Biller    string // email-like identifier of the person who requested the invoice
	OrderID   string
	Location  string // "-"-delimited, first segment significant
	Amount    decimal.Decimal
}

// Key returns the grouping key for this transaction.
func (t *Transaction) Key() GroupKey {
	return GroupKey{
		Biller:  t.Biller,
		Company: t.Company,
		TaxID:   t.TaxID,
	}
}

// LocationPrefix returns the first "-"-delimited segment of the location.
func (t *Transaction) LocationPrefix() string {
	prefix, _, _ := strings.Cut(t.Location, "-")
	return prefix
}

// GroupKey identifies one invoice entry. Comparison is exact string
// equality, case-sensitive, with no whitespace normalization.
type GroupKey struct {
	Biller  string
	Company string
	TaxID   string
}

// Group holds all transactions sharing one key, in input order.
type Group struct {
	Key     GroupKey
	Members []Transaction
}

// InvoiceEntry is the aggregated output unit derived from one group.
// It is constructed once during aggregation and never mutated afterwards.
type InvoiceEntry struct {
	EarliestDate   *time.Time
	LatestDate     *time.Time
	Serial         string
	Biller         string
	Company        string
	TaxID          string
	LocationPrefix string
	Memo           string
	TotalAmount    decimal.Decimal
	MemberCount    int
}
