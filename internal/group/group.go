// Package group partitions transactions by their invoice grouping key.
package group

import (
	"github.com/fapiaoflow/fapiaoflow/internal/model"
)

// ByKey partitions records into groups keyed by (biller, company, tax id).
//
// Group order is the order of first appearance in the input, which makes
// output row order deterministic for identical input. Row position
// implicitly encodes the generated invoice number, so this order must
// never depend on map iteration.
func ByKey(records []model.Transaction) []model.Group {
	index := make(map[model.GroupKey]int)
	groups := make([]model.Group, 0)

	for _, record := range records {
		key := record.Key()
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.Group{Key: key})
		}
		groups[i].Members = append(groups[i].Members, record)
	}

	return groups
}
