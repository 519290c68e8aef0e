package strategy

import "github.com/akalankavinda/binance-analyze/internal/model"

// divergencePriceGapPercent is the minimum price move between the two bottoms
// (or tops) that makes a divergence considerable when the RSI gap alone is
// not wide enough. Longer timeframes demand larger moves.
var divergencePriceGapPercent = map[model.Timeframe]float64{
	model.Timeframe30Min:  2,
	model.Timeframe1Hour:  4,
	model.Timeframe2Hour:  6,
	model.Timeframe4Hour:  10,
	model.Timeframe12Hour: 15,
	model.Timeframe1Day:   20,
}

const (
	divergenceLookback    = 65
	divergenceMinSamples  = 70
	divergenceMinEventGap = 10
)

// RSIDivergence detects classic RSI(14) divergences: price prints a lower low
// while RSI prints a higher low (bullish), or a higher high while RSI prints
// a lower high (bearish), with the second extreme forming a fresh V-shape.
type RSIDivergence struct{}

func (RSIDivergence) Name() model.Strategy { return model.StrategyRSIDivergence }

func (RSIDivergence) Detect(snap Snapshot) *model.Signal {
	if len(snap.RSI14) <= divergenceMinSamples || len(snap.Candles) < divergenceLookback {
		return nil
	}
	w := tailPoints(snap, snap.RSI14, divergenceLookback)
	if sig := detectBullishDivergence(snap, w); sig != nil {
		return sig
	}
	return detectBearishDivergence(snap, w)
}

func detectBullishDivergence(snap Snapshot, w []rsiPoint) *model.Signal {
	n := len(w)
	// The second bottom sits two closed candles back, so the rebound is
	// already visible on the last closed candle.
	second := w[n-3]
	lowest, lowestIdx := w[n-1], n-1
	for i, p := range w {
		if p.rsi < lowest.rsi {
			lowest, lowestIdx = p, i
		}
	}

	vShaped := w[n-2].rsi > w[n-3].rsi &&
		w[n-3].rsi < w[n-4].rsi &&
		w[n-4].rsi < w[n-5].rsi
	oversold := lowest.rsi < 27 && second.rsi < 37
	farApart := second.event-lowest.event > divergenceMinEventGap
	rsiAscending := second.rsi > lowest.rsi
	priceDescending := second.close < lowest.close

	if !(vShaped && oversold && farApart && rsiAscending && priceDescending) {
		return nil
	}
	if trendLineBroken(w, lowestIdx, n-3, true) {
		return nil
	}

	gapPct := priceGapPercent(snap.Timeframe)
	considerable := second.rsi > lowest.rsi+10 ||
		second.close < lowest.close*(1-gapPct/100)
	if !considerable {
		return nil
	}

	return &model.Signal{
		Symbol:      snap.Symbol,
		Strategy:    model.StrategyRSIDivergence,
		Direction:   model.Bullish,
		Timeframe:   snap.Timeframe,
		EventNumber: second.event,
		RSIValue:    second.rsi,
		TargetPrice: second.close,
	}
}

func detectBearishDivergence(snap Snapshot, w []rsiPoint) *model.Signal {
	n := len(w)
	second := w[n-3]
	highest, highestIdx := w[n-1], n-1
	for i, p := range w {
		if p.rsi > highest.rsi {
			highest, highestIdx = p, i
		}
	}

	vShaped := w[n-2].rsi < w[n-3].rsi &&
		w[n-3].rsi > w[n-4].rsi &&
		w[n-4].rsi > w[n-5].rsi
	overbought := highest.rsi > 73 && second.rsi > 63
	farApart := second.event-highest.event > divergenceMinEventGap
	rsiDescending := second.rsi < highest.rsi
	priceAscending := second.close > highest.close

	if !(vShaped && overbought && farApart && rsiDescending && priceAscending) {
		return nil
	}
	if trendLineBroken(w, highestIdx, n-3, false) {
		return nil
	}

	gapPct := priceGapPercent(snap.Timeframe)
	considerable := second.rsi < highest.rsi-10 ||
		second.close > highest.close*(1+gapPct/100)
	if !considerable {
		return nil
	}

	return &model.Signal{
		Symbol:      snap.Symbol,
		Strategy:    model.StrategyRSIDivergence,
		Direction:   model.Bearish,
		Timeframe:   snap.Timeframe,
		EventNumber: second.event,
		RSIValue:    second.rsi,
		TargetPrice: second.close,
	}
}

// TripleDivergence re-checks an already emitted divergence against fresh
// candles: when a third extreme extends the same pattern beyond the seed
// signal's extreme, the divergence is refreshed and re-anchored at the new
// extreme. Returns nil when no third extreme has formed.
func TripleDivergence(snap Snapshot, last model.Signal) *model.Signal {
	rsi, candles := snap.RSI14, snap.Candles
	if len(rsi) < 5 || len(candles) < 4 {
		return nil
	}
	second := rsiPoint{
		rsi:   rsi[len(rsi)-3],
		close: candles[len(candles)-3].Close,
		event: candles[len(candles)-3].EventNumber,
	}
	if second.event-last.EventNumber <= divergenceMinEventGap {
		return nil
	}
	gapPct := priceGapPercent(last.Timeframe)

	if last.Direction == model.Bullish {
		vShaped := rsi[len(rsi)-2] > rsi[len(rsi)-3] &&
			rsi[len(rsi)-3] < rsi[len(rsi)-4] &&
			rsi[len(rsi)-4] < rsi[len(rsi)-5]
		if !vShaped || second.rsi <= last.RSIValue || second.close >= last.TargetPrice {
			return nil
		}
		// No close between the two bottoms may undercut the new bottom.
		for i := len(candles) - 4; i >= 0 && candles[i].EventNumber > last.EventNumber; i-- {
			if candles[i].Close < second.close {
				return nil
			}
		}
		considerable := second.rsi > last.RSIValue+10 ||
			second.close < last.TargetPrice*(1-gapPct/100)
		if !considerable {
			return nil
		}
	} else {
		vShaped := rsi[len(rsi)-2] < rsi[len(rsi)-3] &&
			rsi[len(rsi)-3] > rsi[len(rsi)-4] &&
			rsi[len(rsi)-4] > rsi[len(rsi)-5]
		if !vShaped || second.rsi >= last.RSIValue || second.close <= last.TargetPrice {
			return nil
		}
		for i := len(candles) - 4; i >= 0 && candles[i].EventNumber > last.EventNumber; i-- {
			if candles[i].Close > second.close {
				return nil
			}
		}
		considerable := second.rsi < last.RSIValue-10 ||
			second.close > last.TargetPrice*(1+gapPct/100)
		if !considerable {
			return nil
		}
	}

	refreshed := last
	refreshed.EventNumber = second.event
	refreshed.RSIValue = second.rsi
	refreshed.TargetPrice = second.close
	return &refreshed
}

// trendLineBroken checks the straight line drawn between the two extreme
// closes. For a bullish setup no close between the bottoms may dip below the
// line; for a bearish setup no close may rise above it.
func trendLineBroken(w []rsiPoint, fromIdx, toIdx int, bullish bool) bool {
	from, to := w[fromIdx], w[toIdx]
	if from.event == to.event {
		return false
	}
	gradient := (from.close - to.close) / float64(from.event-to.event)
	intercept := from.close - gradient*float64(from.event)
	for i := fromIdx + 1; i < toIdx; i++ {
		line := gradient*float64(w[i].event) + intercept
		if bullish && w[i].close < line {
			return true
		}
		if !bullish && w[i].close > line {
			return true
		}
	}
	return false
}

func priceGapPercent(tf model.Timeframe) float64 {
	if pct, ok := divergencePriceGapPercent[tf]; ok {
		return pct
	}
	return 1
}
