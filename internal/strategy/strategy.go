// Package strategy implements the opportunity detectors: pure heuristics that
// map a candle/indicator snapshot to an optional directional signal.
package strategy

import (
	"github.com/akalankavinda/binance-analyze/internal/indicator"
	"github.com/akalankavinda/binance-analyze/internal/model"
)

// Snapshot bundles one symbol's candle history and derived indicator series
// for a single timeframe. All series are tail-aligned: the last element of
// every slice corresponds to the most recent candle.
type Snapshot struct {
	Symbol    string
	Timeframe model.Timeframe
	Candles   []model.Candle
	RSI14     []float64
	RSI3      []float64
	Bands     []indicator.Band
}

// Detector is a pure opportunity heuristic. Detect returns nil until the
// snapshot carries enough history for the strategy's lookback and whenever
// no pattern is present. Detectors must not keep state between calls.
type Detector interface {
	Name() model.Strategy
	Detect(snap Snapshot) *model.Signal
}

// Chain runs detectors in a fixed priority order and returns the first match.
type Chain struct {
	detectors []Detector
}

// NewChain creates the standard detector chain. Divergence detectors run
// first so they win over the cheaper band heuristics for the same candle.
func NewChain() *Chain {
	return &Chain{
		detectors: []Detector{
			RSIDivergence{},
			RSI3Divergence{},
			BollingerExtremity{},
			PumpDump{},
			RSI3Overextend{},
		},
	}
}

// Detect returns the first signal produced by the chain, or nil.
func (c *Chain) Detect(snap Snapshot) *model.Signal {
	for _, d := range c.detectors {
		if sig := d.Detect(snap); sig != nil {
			return sig
		}
	}
	return nil
}

// rsiPoint pairs an RSI sample with the candle it was computed from.
type rsiPoint struct {
	rsi   float64
	close float64
	event int64
}

// tailPoints builds the last n (rsi, close, eventNumber) points, oldest first.
// The rsi series and candle history must be tail-aligned.
func tailPoints(snap Snapshot, rsi []float64, n int) []rsiPoint {
	points := make([]rsiPoint, n)
	for i := 1; i <= n; i++ {
		points[n-i] = rsiPoint{
			rsi:   rsi[len(rsi)-i],
			close: snap.Candles[len(snap.Candles)-i].Close,
			event: snap.Candles[len(snap.Candles)-i].EventNumber,
		}
	}
	return points
}
