package strategy

import (
	"sort"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

// timeframeWeight biases ranking toward slower timeframes, whose signals
// carry more weight than fast-chart noise.
var timeframeWeight = map[model.Timeframe]float64{
	model.Timeframe1Hour:  1.1,
	model.Timeframe2Hour:  1.2,
	model.Timeframe4Hour:  1.4,
	model.Timeframe12Hour: 1.5,
	model.Timeframe1Day:   1.5,
}

// Rank orders signals by strength and keeps at most limit of them. Signals
// for the dominant symbol bypass both the ranking and the limit: a dominant
// symbol move colors the whole market, so it is always worth surfacing.
func Rank(signals []model.Signal, dominantSymbol string, limit int) []model.Signal {
	dominant := make([]model.Signal, 0, 1)
	rest := make([]model.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.Symbol == dominantSymbol {
			dominant = append(dominant, sig)
		} else {
			rest = append(rest, sig)
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return rankScore(rest[i]) > rankScore(rest[j])
	})
	if len(rest) > limit {
		rest = rest[:limit]
	}
	return append(dominant, rest...)
}

// rankScore combines directional RSI distance, band penetration depth and
// the timeframe weight into a single sortable strength value.
func rankScore(sig model.Signal) float64 {
	rsi := sig.RSIValue
	if sig.Direction == model.Bullish {
		rsi = 100 - rsi
	}
	weight := 1.0
	if w, ok := timeframeWeight[sig.Timeframe]; ok {
		weight = w
	}
	return rsi * sig.BBPercentage * weight
}
