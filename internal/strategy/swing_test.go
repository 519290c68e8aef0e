package strategy

import (
	"testing"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

func candleHL(high, low float64) model.Candle {
	return model.Candle{High: high, Low: low, Open: low, Close: high}
}

func TestFormedSwingHighLowBullishConfirmed(t *testing.T) {
	candles := make([]model.Candle, 26)
	for i := range candles {
		candles[i] = candleHL(100, 95)
	}
	// Lowest wick at index 20, then a candle takes out its predecessor's high.
	candles[20] = candleHL(96, 90)
	candles[21] = candleHL(94, 92)
	candles[22] = candleHL(97, 93)

	if !FormedSwingHighLow(candles, model.Bullish) {
		t.Error("expected bullish swing to be confirmed")
	}
}

func TestFormedSwingHighLowBullishNotConfirmed(t *testing.T) {
	candles := make([]model.Candle, 26)
	for i := range candles {
		// Strictly descending highs, so no candle takes out a prior high.
		candles[i] = candleHL(200-float64(i), 100-float64(i))
	}
	if FormedSwingHighLow(candles, model.Bullish) {
		t.Error("expected bullish swing to stay unconfirmed")
	}
}

func TestFormedSwingHighLowBearishConfirmed(t *testing.T) {
	candles := make([]model.Candle, 26)
	for i := range candles {
		candles[i] = candleHL(100, 95)
	}
	candles[20] = candleHL(110, 99)
	candles[21] = candleHL(105, 101)
	candles[22] = candleHL(103, 98)

	if !FormedSwingHighLow(candles, model.Bearish) {
		t.Error("expected bearish swing to be confirmed")
	}
}

func TestFormedSwingHighLowShortHistory(t *testing.T) {
	candles := make([]model.Candle, 25)
	for i := range candles {
		candles[i] = candleHL(100, 95)
	}
	if FormedSwingHighLow(candles, model.Bullish) {
		t.Error("expected short history to never confirm")
	}
}
