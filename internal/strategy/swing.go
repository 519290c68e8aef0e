package strategy

import "github.com/akalankavinda/binance-analyze/internal/model"

const (
	swingMinCandles = 25
	swingWindow     = 20
)

// FormedSwingHighLow reports whether price action has confirmed a swing in
// the candidate's direction. For a bullish candidate the extreme is the
// lowest wick of the last window; the swing is confirmed once any later
// candle takes out the high of the candle before it. Bearish is the mirror.
func FormedSwingHighLow(candles []model.Candle, direction model.Direction) bool {
	n := len(candles)
	if n <= swingMinCandles {
		return false
	}
	switch direction {
	case model.Bullish:
		lowestIdx := n - 1
		for i := n - 1; i > n-swingWindow; i-- {
			if candles[i].Low < candles[lowestIdx].Low {
				lowestIdx = i
			}
		}
		for i := lowestIdx; i < n; i++ {
			if candles[i-1].High < candles[i].High {
				return true
			}
		}
		return false
	case model.Bearish:
		highestIdx := n - 1
		for i := n - 1; i > n-swingWindow; i-- {
			if candles[i].High > candles[highestIdx].High {
				highestIdx = i
			}
		}
		for i := highestIdx; i < n; i++ {
			if candles[i-1].Low > candles[i].Low {
				return true
			}
		}
		return false
	default:
		return false
	}
}
