package strategy

import (
	"math"
	"testing"

	"github.com/akalankavinda/binance-analyze/internal/indicator"
	"github.com/akalankavinda/binance-analyze/internal/model"
)

func flatBands(n int, lower, middle, upper float64) []indicator.Band {
	bands := make([]indicator.Band, n)
	for i := range bands {
		bands[i] = indicator.Band{Lower: lower, Middle: middle, Upper: upper}
	}
	return bands
}

func flatCandles(n int, price float64) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = model.Candle{
			Open: price, Close: price, High: price, Low: price,
			EventNumber: int64(i),
		}
	}
	return candles
}

func flatSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBollingerExtremityBullish(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(20, 100),
		Bands:     flatBands(20, 90, 100, 110),
		RSI14:     flatSeries(20, 50),
	}
	// Last closed candle wicks through the lower band and closes back inside.
	snap.Candles[18].Low = 89
	snap.Candles[18].Close = 95
	snap.RSI14[18] = 30

	sig := (BollingerExtremity{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a bullish band-touch signal")
	}
	if sig.Direction != model.Bullish {
		t.Errorf("direction = %s, want BULLISH", sig.Direction)
	}
	if sig.Strategy != model.StrategyRSIWithBB {
		t.Errorf("strategy = %s, want %s", sig.Strategy, model.StrategyRSIWithBB)
	}
	if sig.RSIValue != 30 {
		t.Errorf("rsi value = %v, want 30", sig.RSIValue)
	}
	if sig.TargetPrice != 95 {
		t.Errorf("target price = %v, want 95", sig.TargetPrice)
	}
}

func TestBollingerExtremityRejectsRecentPierce(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(20, 100),
		Bands:     flatBands(20, 90, 100, 110),
		RSI14:     flatSeries(20, 50),
	}
	snap.Candles[18].Low = 89
	snap.Candles[18].Close = 95
	snap.RSI14[18] = 30
	snap.Candles[14].Low = 88 // earlier pierce disqualifies the touch

	if sig := (BollingerExtremity{}).Detect(snap); sig != nil {
		t.Errorf("expected nil after a recent pierce, got %+v", sig)
	}
}

func TestBollingerExtremityRejectsNeutralRSI(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(20, 100),
		Bands:     flatBands(20, 90, 100, 110),
		RSI14:     flatSeries(20, 50),
	}
	snap.Candles[18].Low = 89
	snap.Candles[18].Close = 95

	if sig := (BollingerExtremity{}).Detect(snap); sig != nil {
		t.Errorf("expected nil with neutral RSI, got %+v", sig)
	}
}

func TestPumpDumpDetectsDump(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(10, 100),
		Bands:     flatBands(10, 90, 100, 110),
		RSI14:     flatSeries(10, 50),
	}
	// Half band width is 10, so the dump limit sits at 85.
	snap.Candles[8].Low = 84
	snap.Candles[8].Close = 89

	sig := (PumpDump{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a dump signal")
	}
	if sig.Direction != model.Bearish {
		t.Errorf("direction = %s, want BEARISH", sig.Direction)
	}
}

func TestPumpDumpDetectsPump(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(10, 100),
		Bands:     flatBands(10, 90, 100, 110),
		RSI14:     flatSeries(10, 50),
	}
	snap.Candles[8].High = 116
	snap.Candles[8].Close = 111

	sig := (PumpDump{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a pump signal")
	}
	if sig.Direction != model.Bullish {
		t.Errorf("direction = %s, want BULLISH", sig.Direction)
	}
}

func TestPumpDumpIgnoresOrdinaryCandles(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: model.Timeframe1Hour,
		Candles:   flatCandles(10, 100),
		Bands:     flatBands(10, 90, 100, 110),
		RSI14:     flatSeries(10, 50),
	}
	if sig := (PumpDump{}).Detect(snap); sig != nil {
		t.Errorf("expected nil for a flat candle, got %+v", sig)
	}
}

func TestBBPercentage(t *testing.T) {
	band := indicator.Band{Lower: 90, Middle: 100, Upper: 110}

	if got := BBPercentage(model.Bullish, 95, band); math.Abs(got-50) > 1e-9 {
		t.Errorf("bullish percentage = %v, want 50", got)
	}
	if got := BBPercentage(model.Bearish, 105, band); math.Abs(got-50) > 1e-9 {
		t.Errorf("bearish percentage = %v, want 50", got)
	}
}

func TestBBScore(t *testing.T) {
	band := indicator.Band{Lower: 90, Middle: 100, Upper: 110}

	if got := BBScore(90, band); math.Abs(got+1) > 1e-9 {
		t.Errorf("score at lower band = %v, want -1", got)
	}
	if got := BBScore(110, band); math.Abs(got-1) > 1e-9 {
		t.Errorf("score at upper band = %v, want 1", got)
	}
	if got := BBScore(100, band); got != 0 {
		t.Errorf("score at middle = %v, want 0", got)
	}
}
