// Package indicator wraps the talib indicator library behind tail-aligned
// series helpers. All functions return slices aligned to the tail of the
// input: the last output element always corresponds to the last input candle,
// and the warm-up prefix is stripped rather than zero-filled.
package indicator

import "github.com/markcheno/go-talib"

// Band holds one Bollinger Band sample.
type Band struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// RSI computes the relative strength index. The result has
// len(values)-period entries; nil when the history is too short.
func RSI(values []float64, period int) []float64 {
	if len(values) <= period {
		return nil
	}
	out := talib.Rsi(values, period)
	return out[period:]
}

// SMA computes a simple moving average with len(values)-period+1 entries.
func SMA(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := talib.Sma(values, period)
	return out[period-1:]
}

// EMA computes an exponential moving average with len(values)-period+1 entries.
func EMA(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := talib.Ema(values, period)
	return out[period-1:]
}

// BollingerBands computes Bollinger Bands with the given period and standard
// deviation multiplier, returning len(values)-period+1 samples.
func BollingerBands(values []float64, period int, stdDev float64) []Band {
	if len(values) < period {
		return nil
	}
	upper, middle, lower := talib.BBands(values, period, stdDev, stdDev, talib.SMA)
	bands := make([]Band, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		bands = append(bands, Band{Upper: upper[i], Middle: middle[i], Lower: lower[i]})
	}
	return bands
}
