package market

import "github.com/dustin/go-humanize"

// FormatUSD renders an amount with precision scaled to its magnitude, so
// sub-cent assets keep meaningful digits while large caps stay readable.
func FormatUSD(v float64) string {
	return humanize.CommafWithDigits(v, usdDigits(v))
}

func usdDigits(v float64) int {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 0.0001:
		return 9
	case abs <= 0.001:
		return 8
	case abs <= 0.01:
		return 7
	case abs <= 0.1:
		return 6
	case abs <= 1:
		return 5
	case abs <= 10:
		return 4
	case abs <= 100:
		return 3
	case abs <= 1e5:
		return 2
	case abs <= 1e6:
		return 1
	default:
		return 0
	}
}

// FormatPercent renders a percentage with two digits.
func FormatPercent(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// ChangeColor picks the embed accent color for a 24h change: green for a
// gain of at least 1%, red for a loss of at least 1%, neutral in between.
func ChangeColor(change24h float64) int {
	switch {
	case change24h >= 1:
		return 0x10CC84
	case change24h <= -1:
		return 0xF6465D
	default:
		return 0xF0CCD4
	}
}
