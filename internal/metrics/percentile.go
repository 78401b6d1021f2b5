package metrics

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// Parameters of the synthetic wealth population. The figures are cosmetic:
// the percentile built from them is a placeholder, not a statistic over
// real users.
const (
	PopulationSize  = 10000
	PopulationMu    = 11.0
	PopulationSigma = 1.2
)

// NewSource returns a deterministic random source for WealthPercentile.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// NewTimeSource returns a source seeded from the clock, so the mock
// percentile wobbles between renders.
func NewTimeSource() rand.Source {
	now := uint64(time.Now().UnixNano())
	return rand.NewPCG(now, now>>1)
}

// WealthPercentile is a mock ranking. It draws PopulationSize samples from
// LogNormal(PopulationMu, PopulationSigma) using src and returns the share of
// samples strictly below totalWealth, as a percentage in [0, 100].
func WealthPercentile(totalWealth decimal.Decimal, src rand.Source) float64 {
	rng := rand.New(src)
	wealth := totalWealth.InexactFloat64()
	below := 0
	for i := 0; i < PopulationSize; i++ {
		sample := math.Exp(PopulationMu + PopulationSigma*rng.NormFloat64())
		if sample < wealth {
			below++
		}
	}
	return float64(below) / PopulationSize * 100
}
