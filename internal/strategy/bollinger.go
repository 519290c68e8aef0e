package strategy

import (
	"github.com/akalankavinda/binance-analyze/internal/indicator"
	"github.com/akalankavinda/binance-analyze/internal/model"
)

// bbRecentPierceLookback is how many earlier candles must have stayed inside
// the band for a fresh touch to count as a reversal candidate.
const bbRecentPierceLookback = 15

// BollingerExtremity detects a mean-reversion setup: the last closed candle
// wicked through a Bollinger band but closed back inside it, RSI(14)
// confirms the extreme, and no earlier candle in the recent window already
// pierced the band.
type BollingerExtremity struct{}

func (BollingerExtremity) Name() model.Strategy { return model.StrategyRSIWithBB }

func (BollingerExtremity) Detect(snap Snapshot) *model.Signal {
	if len(snap.Bands) < bbRecentPierceLookback ||
		len(snap.Candles) < bbRecentPierceLookback ||
		len(snap.RSI14) < 2 {
		return nil
	}
	lastClosedRSI := snap.RSI14[len(snap.RSI14)-2]
	band := snap.Bands[len(snap.Bands)-2]
	candle := snap.Candles[len(snap.Candles)-2]

	lowerPierced, upperPierced := false, false
	for i := 3; i < bbRecentPierceLookback; i++ {
		c := snap.Candles[len(snap.Candles)-i]
		b := snap.Bands[len(snap.Bands)-i]
		if c.Low < b.Lower {
			lowerPierced = true
		}
		if c.High > b.Upper {
			upperPierced = true
		}
	}

	var direction model.Direction
	switch {
	case candle.Low <= band.Lower && candle.Close > band.Lower &&
		lastClosedRSI < 35 && !lowerPierced:
		direction = model.Bullish
	case candle.High >= band.Upper && candle.Close < band.Upper &&
		lastClosedRSI > 65 && !upperPierced:
		direction = model.Bearish
	default:
		return nil
	}
	return &model.Signal{
		Symbol:      snap.Symbol,
		Strategy:    model.StrategyRSIWithBB,
		Direction:   direction,
		Timeframe:   snap.Timeframe,
		EventNumber: candle.EventNumber,
		RSIValue:    lastClosedRSI,
		TargetPrice: candle.Close,
	}
}

// PumpDump detects violent band breaks: the last closed candle's wick ran
// past the band by half again the band's width and the candle also closed
// outside it. A break below is a dump (bearish), a break above a pump.
type PumpDump struct{}

func (PumpDump) Name() model.Strategy { return model.StrategyPumpDump }

func (PumpDump) Detect(snap Snapshot) *model.Signal {
	if len(snap.Bands) <= 5 || len(snap.Candles) < 2 || len(snap.RSI14) < 2 {
		return nil
	}
	lastClosedRSI := snap.RSI14[len(snap.RSI14)-2]
	band := snap.Bands[len(snap.Bands)-2]
	candle := snap.Candles[len(snap.Candles)-2]

	lowerLimit := band.Middle - (band.Middle-band.Lower)*1.5
	upperLimit := band.Middle + (band.Upper-band.Middle)*1.5

	var direction model.Direction
	switch {
	case candle.Low <= lowerLimit && candle.Close < band.Lower:
		direction = model.Bearish
	case candle.High >= upperLimit && candle.Close > band.Upper:
		direction = model.Bullish
	default:
		return nil
	}
	return &model.Signal{
		Symbol:      snap.Symbol,
		Strategy:    model.StrategyPumpDump,
		Direction:   direction,
		Timeframe:   snap.Timeframe,
		EventNumber: candle.EventNumber,
		RSIValue:    lastClosedRSI,
		TargetPrice: candle.Close,
	}
}

// BBPercentage measures how deep a price sits in the band on the side the
// signal points at, as a percentage of the half band width.
func BBPercentage(direction model.Direction, price float64, band indicator.Band) float64 {
	switch direction {
	case model.Bullish:
		return (band.Middle - price) / (band.Middle - band.Lower) * 100
	case model.Bearish:
		return (price - band.Middle) / (band.Upper - band.Middle) * 100
	default:
		return 0
	}
}

// BBScore maps a price to [-1, 1] relative to the band: -1 at the lower
// band, 0 at the middle, +1 at the upper band. Values beyond the band
// exceed the unit range.
func BBScore(price float64, band indicator.Band) float64 {
	switch {
	case price < band.Middle:
		return (band.Middle - price) / (band.Middle - band.Lower) * -1
	case price > band.Middle:
		return (price - band.Middle) / (band.Upper - band.Middle)
	default:
		return 0
	}
}
