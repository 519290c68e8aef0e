package model

import (
	"math"
	"strings"
)

// RoundPrice rounds a price to a precision that scales with its magnitude,
// so sub-cent altcoin prices keep their significant digits while large
// prices stay readable.
func RoundPrice(v float64) float64 {
	switch {
	case v > 100:
		return math.Round(v*100) / 100
	case v > 1:
		return math.Round(v*1000) / 1000
	case v > 0.01:
		return math.Round(v*100000) / 100000
	case v > 0.0001:
		return math.Round(v*10000000) / 10000000
	default:
		return math.Round(v*100000000) / 100000000
	}
}

// DisplaySymbol strips the quote asset suffix for user-facing messages.
func DisplaySymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "USDT", "")
}
