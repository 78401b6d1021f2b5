package metrics

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"aurum/internal/core"
)

// Share is one slice of the category distribution.
type Share struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	Percent  float64         `json:"percent"` // of total value
}

// Overview is everything the overview page shows.
type Overview struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalChange   decimal.Decimal `json:"total_change"`
	PercentChange float64         `json:"percent_change"`
	Percentile    float64         `json:"percentile"`
	AssetCount    int             `json:"asset_count"`
	Distribution  []Share         `json:"distribution"`
}

// Performance is everything the performance page shows.
type Performance struct {
	Rows          []CategoryPerformance `json:"rows"`
	MaxAbsPercent float64               `json:"max_abs_percent"`
}

// BuildOverview computes the overview of snapshot. src feeds the mock
// percentile.
func BuildOverview(snapshot []core.Asset, src rand.Source) Overview {
	total := TotalValue(snapshot)
	change := TotalChange(snapshot)

	groups := GroupByCategory(snapshot)
	dist := make([]Share, 0, len(groups))
	for _, g := range groups {
		pct := 0.0
		if !total.IsZero() {
			pct = g.SumValue.Div(total).Mul(hundred).InexactFloat64()
		}
		dist = append(dist, Share{Category: g.Category, Value: g.SumValue, Percent: pct})
	}

	return Overview{
		TotalValue:    total,
		TotalChange:   change,
		PercentChange: PercentChange(total, change),
		Percentile:    WealthPercentile(total, src),
		AssetCount:    len(snapshot),
		Distribution:  dist,
	}
}

// BuildPerformance computes the per-category performance table of snapshot.
func BuildPerformance(snapshot []core.Asset) Performance {
	rows := PercentChangeByCategory(snapshot)
	maxAbs := 0.0
	for _, r := range rows {
		maxAbs = math.Max(maxAbs, math.Abs(r.PercentChange))
	}
	return Performance{Rows: rows, MaxAbsPercent: maxAbs}
}
