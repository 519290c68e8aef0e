package strategy

import (
	"testing"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

// buildSnapshot creates a tail-aligned snapshot from parallel rsi/close
// series, numbering candle events by index.
func buildSnapshot(tf model.Timeframe, rsi, closes []float64) Snapshot {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Symbol:      "ETHUSDT",
			Open:        c,
			Close:       c,
			High:        c,
			Low:         c,
			EventNumber: int64(i),
		}
	}
	return Snapshot{
		Symbol:    "ETHUSDT",
		Timeframe: tf,
		Candles:   candles,
		RSI14:     rsi,
	}
}

// bullishDivergenceSeries builds 71 samples with an RSI bottom at 20 followed
// by a higher RSI bottom at 33 on a lower price, two candles before the tip.
func bullishDivergenceSeries() ([]float64, []float64) {
	rsi := make([]float64, 71)
	closes := make([]float64, 71)
	for i := range rsi {
		rsi[i] = 50
		closes[i] = 100
	}
	rsi[16], closes[16] = 20, 95 // lowest bottom
	rsi[66] = 50
	rsi[67] = 45
	rsi[68], closes[68] = 33, 90 // second bottom
	rsi[69] = 40
	rsi[70] = 42
	return rsi, closes
}

func TestRSIDivergenceBullish(t *testing.T) {
	rsi, closes := bullishDivergenceSeries()
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	sig := (RSIDivergence{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a bullish divergence signal")
	}
	if sig.Direction != model.Bullish {
		t.Errorf("direction = %s, want BULLISH", sig.Direction)
	}
	if sig.Strategy != model.StrategyRSIDivergence {
		t.Errorf("strategy = %s, want %s", sig.Strategy, model.StrategyRSIDivergence)
	}
	if sig.EventNumber != 68 {
		t.Errorf("event number = %d, want 68", sig.EventNumber)
	}
	if sig.RSIValue != 33 {
		t.Errorf("rsi value = %v, want 33", sig.RSIValue)
	}
	if sig.TargetPrice != 90 {
		t.Errorf("target price = %v, want 90", sig.TargetPrice)
	}
}

func TestRSIDivergenceRejectsWithoutVShape(t *testing.T) {
	rsi, closes := bullishDivergenceSeries()
	rsi[69] = 30 // rebound candle dips below the second bottom
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	if sig := (RSIDivergence{}).Detect(snap); sig != nil {
		t.Errorf("expected nil without a V-shaped second bottom, got %+v", sig)
	}
}

func TestRSIDivergenceRejectsBrokenTrendLine(t *testing.T) {
	rsi, closes := bullishDivergenceSeries()
	closes[40] = 80 // close below the line between the two bottoms
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	if sig := (RSIDivergence{}).Detect(snap); sig != nil {
		t.Errorf("expected nil when the trend line is broken, got %+v", sig)
	}
}

func TestRSIDivergenceShortHistory(t *testing.T) {
	rsi := make([]float64, 70)
	closes := make([]float64, 70)
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	if sig := (RSIDivergence{}).Detect(snap); sig != nil {
		t.Errorf("expected nil on short history, got %+v", sig)
	}
}

// tripleSeedSeries builds 40 samples where a third bottom at index 37 (rsi
// 33, close 90) extends a remembered divergence from event 16.
func tripleSeedSeries() (model.Signal, []float64, []float64) {
	rsi := make([]float64, 40)
	closes := make([]float64, 40)
	for i := range rsi {
		rsi[i] = 50
		closes[i] = 100
	}
	rsi[36] = 45
	rsi[37], closes[37] = 33, 90
	rsi[38] = 40
	rsi[39] = 42

	seed := model.Signal{
		Symbol:      "ETHUSDT",
		Strategy:    model.StrategyRSIDivergence,
		Direction:   model.Bullish,
		Timeframe:   model.Timeframe1Hour,
		EventNumber: 16,
		RSIValue:    20,
		TargetPrice: 95,
	}
	return seed, rsi, closes
}

func TestTripleDivergenceRefreshesSeed(t *testing.T) {
	seed, rsi, closes := tripleSeedSeries()
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	refreshed := TripleDivergence(snap, seed)
	if refreshed == nil {
		t.Fatal("expected the third bottom to refresh the divergence")
	}
	if refreshed.EventNumber != 37 {
		t.Errorf("event number = %d, want re-anchored at 37", refreshed.EventNumber)
	}
	if refreshed.RSIValue != 33 || refreshed.TargetPrice != 90 {
		t.Errorf("refreshed rsi/price = %v/%v, want 33/90", refreshed.RSIValue, refreshed.TargetPrice)
	}
	if refreshed.Direction != model.Bullish || refreshed.Strategy != model.StrategyRSIDivergence {
		t.Errorf("refreshed signal changed identity: %+v", refreshed)
	}
}

func TestTripleDivergenceRejectsUndercutBetweenBottoms(t *testing.T) {
	seed, rsi, closes := tripleSeedSeries()
	closes[25] = 85 // a close below the new bottom breaks the pattern
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	if refreshed := TripleDivergence(snap, seed); refreshed != nil {
		t.Errorf("expected nil when a close undercuts the new bottom, got %+v", refreshed)
	}
}

func TestTripleDivergenceNeedsCandleGap(t *testing.T) {
	seed, rsi, closes := tripleSeedSeries()
	seed.EventNumber = 30 // only seven candles before the new bottom
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	if refreshed := TripleDivergence(snap, seed); refreshed != nil {
		t.Errorf("expected nil without enough gap between bottoms, got %+v", refreshed)
	}
}

func TestTripleDivergenceBearish(t *testing.T) {
	rsi := make([]float64, 40)
	closes := make([]float64, 40)
	for i := range rsi {
		rsi[i] = 50
		closes[i] = 100
	}
	rsi[36] = 55
	rsi[37], closes[37] = 67, 110
	rsi[38] = 60
	rsi[39] = 58

	seed := model.Signal{
		Symbol:      "ETHUSDT",
		Strategy:    model.StrategyRSIDivergence,
		Direction:   model.Bearish,
		Timeframe:   model.Timeframe1Hour,
		EventNumber: 16,
		RSIValue:    80,
		TargetPrice: 105,
	}
	snap := buildSnapshot(model.Timeframe1Hour, rsi, closes)

	refreshed := TripleDivergence(snap, seed)
	if refreshed == nil {
		t.Fatal("expected a bearish third top to refresh the divergence")
	}
	if refreshed.EventNumber != 37 || refreshed.RSIValue != 67 {
		t.Errorf("refreshed = %+v, want anchored at event 37 with rsi 67", refreshed)
	}
}

func TestRSI3DivergenceBullish(t *testing.T) {
	rsi3 := make([]float64, 56)
	closes := make([]float64, 56)
	rsi14 := make([]float64, 56)
	for i := range rsi3 {
		rsi3[i] = 50
		closes[i] = 100
		rsi14[i] = 45
	}
	rsi3[49], closes[49] = 3, 95 // lowest bottom
	rsi3[52] = 30
	rsi3[53] = 25
	rsi3[54], closes[54] = 15, 90 // second bottom on the last closed candle
	rsi14[54] = 28

	snap := buildSnapshot(model.Timeframe1Hour, rsi14, closes)
	snap.RSI3 = rsi3

	sig := (RSI3Divergence{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a bullish RSI(3) divergence signal")
	}
	if sig.Direction != model.Bullish {
		t.Errorf("direction = %s, want BULLISH", sig.Direction)
	}
	if sig.EventNumber != 54 {
		t.Errorf("event number = %d, want 54", sig.EventNumber)
	}
	if sig.RSIValue != 28 {
		t.Errorf("rsi value = %v, want RSI(14) of last closed candle 28", sig.RSIValue)
	}
}

func TestRSI3OverextendFiresOnlyOn4Hour(t *testing.T) {
	rsi3 := []float64{50, 2.0}
	rsi14 := []float64{40, 22}
	closes := []float64{100, 98}

	snap := buildSnapshot(model.Timeframe4Hour, rsi14, closes)
	snap.RSI3 = rsi3

	sig := (RSI3Overextend{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected an overextend signal on 4h")
	}
	if sig.Direction != model.Bullish {
		t.Errorf("direction = %s, want BULLISH", sig.Direction)
	}
	if sig.RSIValue != 22 {
		t.Errorf("rsi value = %v, want 22", sig.RSIValue)
	}

	snap.Timeframe = model.Timeframe1Hour
	if sig := (RSI3Overextend{}).Detect(snap); sig != nil {
		t.Errorf("expected nil outside 4h, got %+v", sig)
	}
}

func TestRSI3OverextendBearish(t *testing.T) {
	snap := buildSnapshot(model.Timeframe4Hour, []float64{60, 81}, []float64{100, 120})
	snap.RSI3 = []float64{50, 98.2}

	sig := (RSI3Overextend{}).Detect(snap)
	if sig == nil {
		t.Fatal("expected a bearish overextend signal")
	}
	if sig.Direction != model.Bearish {
		t.Errorf("direction = %s, want BEARISH", sig.Direction)
	}
}
