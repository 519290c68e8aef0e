package engine

import (
	"github.com/akalankavinda/binance-analyze/internal/model"
	"github.com/akalankavinda/binance-analyze/internal/strategy"
)

// Session accumulates the signals of one analysis pass across all symbols
// and timeframes. Regular signals are deduplicated per symbol; important
// signals bypass the dedupe and the ranking. A handful of market-extreme
// trackers watch the 4h charts and contribute at most one signal each.
type Session struct {
	signals   []model.Signal
	important []model.Signal
	selected  map[string]bool

	highestBBScore float64
	lowestBBScore  float64
	highestRSI     float64
	lowestRSI      float64

	highestBB     *model.Signal
	lowestBB      *model.Signal
	highestRSISig *model.Signal
	lowestRSISig  *model.Signal
}

// NewSession creates an empty session accumulator.
func NewSession() *Session {
	s := &Session{}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.signals = nil
	s.important = nil
	s.selected = make(map[string]bool)
	s.highestBBScore = 0
	s.lowestBBScore = 0
	s.highestRSI = 0
	s.lowestRSI = 100
	s.highestBB = nil
	s.lowestBB = nil
	s.highestRSISig = nil
	s.lowestRSISig = nil
}

// Add records a confirmed signal. Only the intraday timeframes feed trades;
// one regular signal is kept per symbol per session, first wins.
func (s *Session) Add(sig model.Signal) {
	allowed := sig.Timeframe == model.Timeframe1Hour ||
		sig.Timeframe == model.Timeframe2Hour ||
		sig.Timeframe == model.Timeframe4Hour
	if !allowed {
		return
	}
	if sig.Strategy == model.StrategyRSI3Overextend {
		s.important = append(s.important, sig)
		return
	}
	if s.selected[sig.Symbol] {
		return
	}
	s.selected[sig.Symbol] = true
	s.signals = append(s.signals, sig)
}

// ObserveExtremes updates the 4h market-extreme trackers with one symbol's
// latest candle. Scores must clear the gate before a symbol can take over
// an extreme slot.
func (s *Session) ObserveExtremes(snap strategy.Snapshot) {
	if snap.Timeframe != model.Timeframe4Hour {
		return
	}
	if len(snap.Candles) == 0 || len(snap.Bands) == 0 || len(snap.RSI14) == 0 {
		return
	}
	last := snap.Candles[len(snap.Candles)-1]
	band := snap.Bands[len(snap.Bands)-1]
	rsi := snap.RSI14[len(snap.RSI14)-1]
	score := strategy.BBScore(last.Close, band)

	if score > 0.8 && score > s.highestBBScore {
		s.highestBBScore = score
		s.highestBB = extremeSignal(snap.Symbol, model.StrategyHighestBB, model.Bearish, last.EventNumber, rsi)
	}
	if score < -0.8 && score < s.lowestBBScore {
		s.lowestBBScore = score
		s.lowestBB = extremeSignal(snap.Symbol, model.StrategyLowestBB, model.Bullish, last.EventNumber, rsi)
	}
	if rsi > 70 && rsi > s.highestRSI {
		s.highestRSI = rsi
		s.highestRSISig = extremeSignal(snap.Symbol, model.StrategyHighestRSI, model.Bearish, last.EventNumber, rsi)
	}
	if rsi < 30 && rsi < s.lowestRSI {
		s.lowestRSI = rsi
		s.lowestRSISig = extremeSignal(snap.Symbol, model.StrategyLowestRSI, model.Bullish, last.EventNumber, rsi)
	}
}

// Finish ranks the accumulated signals, appends important and extreme
// signals, resets the session, and returns the combined list.
func (s *Session) Finish(dominantSymbol string, rankLimit int) []model.Signal {
	out := strategy.Rank(s.signals, dominantSymbol, rankLimit)
	out = append(out, s.important...)
	for _, extra := range []*model.Signal{s.lowestBB, s.lowestRSISig, s.highestBB, s.highestRSISig} {
		if extra != nil {
			out = append(out, *extra)
		}
	}
	s.reset()
	return out
}

func extremeSignal(symbol string, strat model.Strategy, dir model.Direction, event int64, rsi float64) *model.Signal {
	return &model.Signal{
		Symbol:      symbol,
		Strategy:    strat,
		Direction:   dir,
		Timeframe:   model.Timeframe4Hour,
		EventNumber: event,
		RSIValue:    rsi,
	}
}
