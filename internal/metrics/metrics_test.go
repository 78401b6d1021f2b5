package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestTotals_SeedLedger(t *testing.T) {
	seed := core.SeedAssets()

	total := TotalValue(seed)
	change := TotalChange(seed)

	assert.True(t, total.Equal(dec(1060000)), "total value %s", total)
	assert.True(t, change.Equal(dec(2250)), "total change %s", change)
	assert.InDelta(t, 2250.0/(1060000.0-2250.0)*100, PercentChange(total, change), 1e-9)
	assert.InDelta(t, 0.2127, PercentChange(total, change), 0.0001)
}

func TestTotals_EmptyLedger(t *testing.T) {
	for _, snap := range [][]core.Asset{nil, {}} {
		assert.True(t, TotalValue(snap).IsZero())
		assert.True(t, TotalChange(snap).IsZero())
		assert.Equal(t, 0.0, PercentChange(TotalValue(snap), TotalChange(snap)))

		groups := GroupByCategory(snap)
		assert.NotNil(t, groups)
		assert.Empty(t, groups)
		assert.Empty(t, PercentChangeByCategory(snap))
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		change int64
		want   float64
	}{
		{"gain", 110, 10, 10},
		{"loss", 90, -10, -10},
		{"no change", 100, 0, 0},
		{"zero prior total", 50, 50, 0},
		{"all zero", 0, 0, 0},
		{"relative to prior not current", 200, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentChange(dec(tt.total), dec(tt.change)), 1e-9)
		})
	}
}

func TestGroupByCategory_SeedLedger(t *testing.T) {
	seed := core.SeedAssets()
	groups := GroupByCategory(seed)

	require.Len(t, groups, 6)
	for i, g := range groups {
		assert.Equal(t, seed[i].Category, g.Category)
		assert.True(t, g.SumValue.Equal(seed[i].Value), g.Category)
		assert.True(t, g.SumChange.Equal(seed[i].Change), g.Category)
		assert.Equal(t, 1, g.Count)
	}
}

func TestGroupByCategory_FirstAppearanceOrder(t *testing.T) {
	snap := []core.Asset{
		core.NewAsset("b1", "B", 10, 1),
		core.NewAsset("a1", "A", 20, 2),
		core.NewAsset("b2", "B", 30, -3),
		core.NewAsset("c1", "c", 5, 0),
		core.NewAsset("c2", "C", 5, 0),
	}
	groups := GroupByCategory(snap)

	require.Len(t, groups, 4)
	assert.Equal(t, []string{"B", "A", "c", "C"}, []string{groups[0].Category, groups[1].Category, groups[2].Category, groups[3].Category})
	assert.True(t, groups[0].SumValue.Equal(dec(40)))
	assert.True(t, groups[0].SumChange.Equal(dec(-2)))
	assert.Equal(t, 2, groups[0].Count)

	// deterministic across calls
	assert.Equal(t, groups, GroupByCategory(snap))
}

func TestPercentChangeByCategory(t *testing.T) {
	snap := []core.Asset{
		core.NewAsset("Villa", "Real Estate", 500000, 2000),
		core.NewAsset("Flat", "Real Estate", 100000, -1000),
		core.NewAsset("Coins", "Cash", 100, 100),
	}
	rows := PercentChangeByCategory(snap)

	require.Len(t, rows, 2)
	assert.Equal(t, "Real Estate", rows[0].Category)
	assert.True(t, rows[0].SumValue.Equal(dec(600000)))
	assert.True(t, rows[0].SumChange.Equal(dec(1000)))
	assert.InDelta(t, 1000.0/599000.0*100, rows[0].PercentChange, 1e-9)

	// whole value is this period's change: zero denominator guard
	assert.Equal(t, "Cash", rows[1].Category)
	assert.Equal(t, 0.0, rows[1].PercentChange)
}
