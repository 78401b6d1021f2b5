package core

import "fmt"

// Percent is a percentage value, 1.5 meaning 1.5%.
type Percent float64

// Equal compares two percents within display precision.
func (p Percent) Equal(q Percent) bool {
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

// SignedString renders the percent with an explicit sign, e.g. "+0.21%".
func (p Percent) SignedString() string {
	return fmt.Sprintf("%+.2f%%", float64(p))
}

// Ordinal renders a percentile the way the overview shows it, e.g. "57.3th".
func (p Percent) Ordinal() string {
	return fmt.Sprintf("%.1fth", float64(p))
}
