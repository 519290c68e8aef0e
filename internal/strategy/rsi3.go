package strategy

import "github.com/akalankavinda/binance-analyze/internal/model"

// rsi3PriceGapPercent mirrors divergencePriceGapPercent for the fast RSI(3)
// series, with tighter limits since RSI(3) extremes resolve quickly.
var rsi3PriceGapPercent = map[model.Timeframe]float64{
	model.Timeframe30Min:  2,
	model.Timeframe1Hour:  2,
	model.Timeframe2Hour:  3,
	model.Timeframe4Hour:  4,
	model.Timeframe12Hour: 6,
	model.Timeframe1Day:   10,
}

const (
	rsi3Lookback   = 9
	rsi3MinSamples = 55
)

// RSI3Divergence detects short-range divergences on the RSI(3) series. The
// second extreme is the last closed candle itself, so the setup fires while
// the move is still unfolding. The reported RSI value comes from the slower
// RSI(14) series so downstream ranking stays comparable across strategies.
type RSI3Divergence struct{}

func (RSI3Divergence) Name() model.Strategy { return model.StrategyRSI3Divergence }

func (RSI3Divergence) Detect(snap Snapshot) *model.Signal {
	if len(snap.RSI3) <= rsi3MinSamples || len(snap.RSI14) < 2 || len(snap.Candles) < rsi3Lookback {
		return nil
	}
	w := tailPoints(snap, snap.RSI3, rsi3Lookback)
	n := len(w)
	rsi3 := snap.RSI3
	lastClosedRSI14 := snap.RSI14[len(snap.RSI14)-2]
	gapPct := rsi3GapPercent(snap.Timeframe)

	// Bullish: lowest RSI(3) bottom in the window plus a lower-priced bottom
	// on the last closed candle.
	lowest := w[n-1]
	for _, p := range w {
		if p.rsi < lowest.rsi {
			lowest = p
		}
	}
	second := w[n-2]
	stillDescending := rsi3[len(rsi3)-2] < rsi3[len(rsi3)-3] &&
		rsi3[len(rsi3)-3] < rsi3[len(rsi3)-4]
	oversold := lowest.rsi < 5 && second.rsi < 20
	farApart := second.event-lowest.event > 2
	considerable := second.rsi > lowest.rsi+10 ||
		second.close < lowest.close*(1-gapPct/100)
	if stillDescending && oversold && farApart &&
		second.rsi > lowest.rsi && second.close < lowest.close && considerable {
		return &model.Signal{
			Symbol:      snap.Symbol,
			Strategy:    model.StrategyRSI3Divergence,
			Direction:   model.Bullish,
			Timeframe:   snap.Timeframe,
			EventNumber: second.event,
			RSIValue:    lastClosedRSI14,
			TargetPrice: second.close,
		}
	}

	// Bearish mirror.
	highest := w[n-1]
	for _, p := range w {
		if p.rsi > highest.rsi {
			highest = p
		}
	}
	stillAscending := rsi3[len(rsi3)-2] > rsi3[len(rsi3)-3] &&
		rsi3[len(rsi3)-3] > rsi3[len(rsi3)-4]
	overbought := highest.rsi > 95 && second.rsi > 80
	farApart = second.event-highest.event > 2
	considerable = second.rsi < highest.rsi-10 ||
		second.close > highest.close*(1+gapPct/100)
	if stillAscending && overbought && farApart &&
		second.rsi < highest.rsi && second.close > highest.close && considerable {
		return &model.Signal{
			Symbol:      snap.Symbol,
			Strategy:    model.StrategyRSI3Divergence,
			Direction:   model.Bearish,
			Timeframe:   snap.Timeframe,
			EventNumber: second.event,
			RSIValue:    lastClosedRSI14,
			TargetPrice: second.close,
		}
	}
	return nil
}

func rsi3GapPercent(tf model.Timeframe) float64 {
	if pct, ok := rsi3PriceGapPercent[tf]; ok {
		return pct
	}
	return 1
}

// RSI3Overextend flags a fully exhausted RSI(3) reading on the 4h chart.
// These fire rarely and are treated as high-priority alerts downstream.
type RSI3Overextend struct{}

func (RSI3Overextend) Name() model.Strategy { return model.StrategyRSI3Overextend }

func (RSI3Overextend) Detect(snap Snapshot) *model.Signal {
	if snap.Timeframe != model.Timeframe4Hour {
		return nil
	}
	if len(snap.RSI3) == 0 || len(snap.RSI14) == 0 || len(snap.Candles) == 0 {
		return nil
	}
	last := snap.RSI3[len(snap.RSI3)-1]
	candle := snap.Candles[len(snap.Candles)-1]

	var direction model.Direction
	switch {
	case last < 2.5:
		direction = model.Bullish
	case last > 97.5:
		direction = model.Bearish
	default:
		return nil
	}
	return &model.Signal{
		Symbol:      snap.Symbol,
		Strategy:    model.StrategyRSI3Overextend,
		Direction:   direction,
		Timeframe:   snap.Timeframe,
		EventNumber: candle.EventNumber,
		RSIValue:    snap.RSI14[len(snap.RSI14)-1],
		TargetPrice: candle.Close,
	}
}
