package rank

import "github.com/shopspring/decimal"

var millNames = []string{"", " K", " M", " B", " T"}

var thousand = decimal.NewFromInt(1000)

// Millify abbreviates a non-negative value to "<integer><suffix>" with
// suffix K/M/B/T per factor of 1000 and zero decimal places. Rounding is
// half-up at the chosen scale, and the suffix is picked from the unscaled
// magnitude, so 999999 renders as "1000 K" rather than "1 M". Magnitudes at
// or above 10^15 clamp to T.
func Millify(n decimal.Decimal) string {
	if n.Sign() <= 0 {
		return "0"
	}

	idx := 0
	probe := n
	for idx < len(millNames)-1 && probe.GreaterThanOrEqual(thousand) {
		probe = probe.Div(thousand)
		idx++
	}

	scaled := n.Div(thousand.Pow(decimal.NewFromInt(int64(idx))))
	return scaled.Round(0).String() + millNames[idx]
}
