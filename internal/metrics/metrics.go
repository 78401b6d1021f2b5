// Package metrics derives the dashboard figures from a ledger snapshot.
//
// Every function here is pure: it reads the snapshot it is given and keeps
// no state between calls. An empty snapshot is always valid and yields zero
// totals and empty groupings.
package metrics

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryGroup is the aggregate of every asset sharing one category.
type CategoryGroup struct {
	Category  string          `json:"category"`
	SumValue  decimal.Decimal `json:"sum_value"`
	SumChange decimal.Decimal `json:"sum_change"`
	Count     int             `json:"count"`
}

// CategoryPerformance is a CategoryGroup with its percent change.
type CategoryPerformance struct {
	Category      string          `json:"category"`
	SumValue      decimal.Decimal `json:"sum_value"`
	SumChange     decimal.Decimal `json:"sum_change"`
	PercentChange float64         `json:"percent_change"`
}

// TotalValue sums the value of every asset.
func TotalValue(snapshot []core.Asset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range snapshot {
		total = total.Add(a.Value)
	}
	return total
}

// TotalChange sums the change of every asset.
func TotalChange(snapshot []core.Asset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range snapshot {
		total = total.Add(a.Change)
	}
	return total
}

// PercentChange measures change against the prior total, that is
// change / (total - change) * 100. A zero prior total yields 0.
func PercentChange(total, change decimal.Decimal) float64 {
	prior := total.Sub(change)
	if prior.IsZero() {
		return 0
	}
	return change.Div(prior).Mul(hundred).InexactFloat64()
}

// GroupByCategory aggregates value and change per category, ordered by the
// first appearance of each category in snapshot. Category matching is exact.
func GroupByCategory(snapshot []core.Asset) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)
	for _, a := range snapshot {
		i, ok := index[a.Category]
		if !ok {
			i = len(groups)
			index[a.Category] = i
			groups = append(groups, CategoryGroup{
				Category:  a.Category,
				SumValue:  decimal.Zero,
				SumChange: decimal.Zero,
			})
		}
		g := &groups[i]
		g.SumValue = g.SumValue.Add(a.Value)
		g.SumChange = g.SumChange.Add(a.Change)
		g.Count++
	}
	return groups
}

// PercentChangeByCategory applies PercentChange to each category's own sums.
func PercentChangeByCategory(snapshot []core.Asset) []CategoryPerformance {
	groups := GroupByCategory(snapshot)
	out := make([]CategoryPerformance, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryPerformance{
			Category:      g.Category,
			SumValue:      g.SumValue,
			SumChange:     g.SumChange,
			PercentChange: PercentChange(g.SumValue, g.SumChange),
		})
	}
	return out
}
