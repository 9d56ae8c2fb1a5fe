// Package aggregate derives one invoice entry from each transaction group.
package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fapiaoflow/fapiaoflow/internal/model"
)

const (
	// mergeMarker is appended to the synthesized serial to denote a
	// consolidated invoice.
	mergeMarker = "_合"

	// dateLayout renders timestamps as month/day, e.g. "01月05日".
	// Fixed output format, not configurable.
	dateLayout = "01月02日"
)

// Entry computes the invoice entry for one group. A group whose member
// amounts sum to exactly zero produces no entry and returns nil: it is
// excluded from the output entirely, not merely from totals.
func Entry(g model.Group, itemName string) *model.InvoiceEntry {
	total := decimal.Zero
	for _, member := range g.Members {
		total = total.Add(member.Amount)
	}
	if total.IsZero() {
		return nil
	}

	first := g.Members[0]
	earliest, latest := dateRange(g.Members)

	entry := &model.InvoiceEntry{
		Serial:         Serial(first.OrderID),
		Biller:         g.Key.Biller,
		Company:        g.Key.Company,
		TaxID:          g.Key.TaxID,
		TotalAmount:    total,
		MemberCount:    len(g.Members),
		EarliestDate:   earliest,
		LatestDate:     latest,
		LocationPrefix: first.LocationPrefix(),
	}
	entry.Memo = memo(entry, itemName)

	return entry
}

// Serial synthesizes the consolidated invoice serial from an order id:
// a trailing ".0" is stripped, then the merge marker is appended.
func Serial(orderID string) string {
	return strings.TrimSuffix(orderID, ".0") + mergeMarker
}

// dateRange returns the earliest and latest parsed timestamps in the
// group. Nil timestamps are skipped; if every timestamp failed to parse,
// both results are nil and the memo degrades to empty date fragments.
func dateRange(members []model.Transaction) (earliest, latest *time.Time) {
	for _, member := range members {
		if member.CreatedAt == nil {
			continue
		}
		if earliest == nil || member.CreatedAt.Before(*earliest) {
			earliest = member.CreatedAt
		}
		if latest == nil || member.CreatedAt.After(*latest) {
			latest = member.CreatedAt
		}
	}
	return earliest, latest
}

func memo(entry *model.InvoiceEntry, itemName string) string {
	return fmt.Sprintf("%s %s-%s %s共%d笔",
		entry.LocationPrefix,
		formatDate(entry.EarliestDate),
		formatDate(entry.LatestDate),
		itemName,
		entry.MemberCount)
}

func formatDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(dateLayout)
}
