package engine

import (
	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/model"
	"github.com/akalankavinda/binance-analyze/internal/strategy"
)

// candidateExpiryLimit is the maximum candle count a pending candidate may
// wait for its swing confirmation before it is silently dropped. Slower
// setups get more room.
var candidateExpiryLimit = map[model.Strategy]int64{
	model.StrategyRSIDivergence:  32,
	model.StrategyRSIWithBB:      16,
	model.StrategyPumpDump:       10,
	model.StrategyRSI3Divergence: 12,
}

// Tracker holds detector signals that still need price-action confirmation.
// A candidate stays pending until either a swing forms in its direction
// (confirmed, emitted once) or too many candles pass (expired, dropped).
// The tracker owns its candidate map exclusively; callers interact through
// Submit and Advance only.
type Tracker struct {
	pending map[string]model.Signal
	logger  *zap.Logger
}

// NewTracker creates an empty candidate tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		pending: make(map[string]model.Signal),
		logger:  logger,
	}
}

// Submit registers a fresh detector signal. A newer signal with the same
// (symbol, timeframe, strategy, direction) key replaces the pending one.
func (t *Tracker) Submit(sig model.Signal) {
	key := sig.Key()
	if _, ok := t.pending[key]; ok {
		t.logger.Debug("candidate_replaced", zap.String("key", key))
	}
	t.pending[key] = sig
}

// Advance re-evaluates all pending candidates for one symbol and timeframe
// against fresh candle history. Expired candidates are deleted without
// output. The first candidate whose swing confirmation holds is emitted as
// a finalized signal and removed; at most one signal is emitted per call.
// Short or malformed history confirms nothing and keeps candidates pending.
func (t *Tracker) Advance(symbol string, timeframe model.Timeframe, candles []model.Candle) *model.Signal {
	if len(candles) < 2 {
		return nil
	}
	lastClosed := candles[len(candles)-2]

	var confirmed *model.Signal
	for key, cand := range t.pending {
		if cand.Symbol != symbol || cand.Timeframe != timeframe {
			continue
		}
		if lastClosed.EventNumber-cand.EventNumber > expiryLimit(cand.Strategy) {
			delete(t.pending, key)
			t.logger.Debug("candidate_expired",
				zap.String("symbol", cand.Symbol),
				zap.String("strategy", string(cand.Strategy)),
				zap.String("timeframe", string(cand.Timeframe)))
			continue
		}
		if confirmed == nil && strategy.FormedSwingHighLow(candles, cand.Direction) {
			sig := cand
			confirmed = &sig
			delete(t.pending, key)
			t.logger.Info("candidate_confirmed",
				zap.String("symbol", cand.Symbol),
				zap.String("strategy", string(cand.Strategy)),
				zap.String("timeframe", string(cand.Timeframe)))
		}
	}
	return confirmed
}

// PendingCount reports how many candidates are still waiting.
func (t *Tracker) PendingCount() int {
	return len(t.pending)
}

func expiryLimit(s model.Strategy) int64 {
	if limit, ok := candidateExpiryLimit[s]; ok {
		return limit
	}
	return 32
}
