package engine

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/indicator"
	"github.com/akalankavinda/binance-analyze/internal/model"
	"github.com/akalankavinda/binance-analyze/internal/strategy"
)

// Indicator parameters used for every analysis pass.
const (
	bollingerPeriod = 55
	bollingerStdDev = 3
	rsiSlowPeriod   = 14
	rsiFastPeriod   = 3
)

// Notifier extends Reporter with the batched message flushes the engine
// triggers at session and tick boundaries.
type Notifier interface {
	Reporter
	SendOpportunityList(signals []model.Signal)
	FlushSessionMessages()
	FlushOrderMessages()
	SendAccountUpdate(summary AccountSummary)
}

type eventKind int

const (
	eventPriceTick eventKind = iota
	eventTimeframeClose
	eventSessionFinish
	eventHourMark
)

// event is one unit of serialized work. Tick handling and analysis share
// the same mutable state, so they are processed strictly in arrival order
// by a single consumer.
type event struct {
	kind      eventKind
	ticks     map[string]float64
	timeframe model.Timeframe
	chart     model.ChartData
	now       time.Time
}

// Engine wires the detector chain, candidate tracker, session accumulator
// and paper order book into one serialized event loop.
type Engine struct {
	dominantSymbol string
	rankLimit      int

	chain   *strategy.Chain
	tracker *Tracker
	session *Session
	book    *Book

	notifier       Notifier
	events         chan event
	lastPrice      map[string]float64
	lastDivergence map[string]model.Signal
	status         atomic.Pointer[StatusSnapshot]
	logger         *zap.Logger
}

// StatusSnapshot is a read-only view of the engine state for the status
// API. It is rebuilt after every processed event.
type StatusSnapshot struct {
	Account           AccountSummary     `json:"account"`
	PendingBuys       []model.PaperTrade `json:"pendingBuys"`
	ActiveOrders      []model.PaperTrade `json:"activeOrders"`
	PendingCandidates int                `json:"pendingCandidates"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// New creates an engine around an order book and notifier.
func New(dominantSymbol string, rankLimit int, book *Book, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		dominantSymbol: dominantSymbol,
		rankLimit:      rankLimit,
		chain:          strategy.NewChain(),
		tracker:        NewTracker(logger),
		session:        NewSession(),
		book:           book,
		notifier:       notifier,
		events:         make(chan event, 256),
		lastPrice:      make(map[string]float64),
		lastDivergence: make(map[string]model.Signal),
		logger:         logger,
	}
}

// OnPriceTick queues a batch of live prices for fill/exit evaluation.
func (e *Engine) OnPriceTick(ticks map[string]float64, now time.Time) {
	e.events <- event{kind: eventPriceTick, ticks: ticks, now: now}
}

// OnTimeframeClose queues an analysis pass over fresh candle history for
// one timeframe.
func (e *Engine) OnTimeframeClose(timeframe model.Timeframe, chart model.ChartData, now time.Time) {
	e.events <- event{kind: eventTimeframeClose, timeframe: timeframe, chart: chart, now: now}
}

// OnSessionFinish queues the end of an analysis session: ranking, order
// placement and notification flushing.
func (e *Engine) OnSessionFinish(now time.Time) {
	e.events <- event{kind: eventSessionFinish, now: now}
}

// OnHourMark queues a periodic account status update.
func (e *Engine) OnHourMark(now time.Time) {
	e.events <- event{kind: eventHourMark, now: now}
}

// Run consumes events until the context is cancelled. It is the only
// goroutine allowed to touch the tracker, session and order book.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine_started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine_stopped")
			return
		case ev := <-e.events:
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case eventPriceTick:
		for symbol, price := range ev.ticks {
			e.lastPrice[symbol] = price
		}
		e.book.OnTicks(ev.ticks, ev.now)
		e.notifier.FlushOrderMessages()
	case eventTimeframeClose:
		e.analyze(ev.timeframe, ev.chart)
	case eventSessionFinish:
		e.finishSession(ev.now)
	case eventHourMark:
		e.notifier.SendAccountUpdate(e.book.Summary())
	}
	e.refreshStatus(ev.now)
}

func (e *Engine) refreshStatus(now time.Time) {
	e.status.Store(&StatusSnapshot{
		Account:           e.book.Summary(),
		PendingBuys:       e.book.PendingOrders(),
		ActiveOrders:      e.book.ActiveOrders(),
		PendingCandidates: e.tracker.PendingCount(),
		UpdatedAt:         now,
	})
}

// StatusJSON serializes the latest engine snapshot. It is safe to call
// from any goroutine.
func (e *Engine) StatusJSON() ([]byte, error) {
	snap := e.status.Load()
	if snap == nil {
		snap = &StatusSnapshot{}
	}
	return json.Marshal(snap)
}

// analyze runs the detector chain over every symbol's candle history for
// one timeframe, feeds new signals into the candidate tracker, and moves
// swing-confirmed candidates into the session.
func (e *Engine) analyze(timeframe model.Timeframe, chart model.ChartData) {
	for symbol, candles := range chart {
		if len(candles) == 0 {
			continue
		}
		closes := make([]float64, len(candles))
		for i, c := range candles {
			closes[i] = c.Close
		}

		snap := strategy.Snapshot{
			Symbol:    symbol,
			Timeframe: timeframe,
			Candles:   candles,
			RSI14:     indicator.RSI(closes, rsiSlowPeriod),
			RSI3:      indicator.RSI(closes, rsiFastPeriod),
			Bands:     indicator.BollingerBands(closes, bollingerPeriod, bollingerStdDev),
		}

		if sig := e.chain.Detect(snap); sig != nil {
			if sig.Strategy == model.StrategyRSIDivergence {
				e.lastDivergence[sig.Key()] = *sig
			}
			if sig.Strategy == model.StrategyRSI3Overextend {
				// Overextends are acted on immediately, no swing needed.
				e.session.Add(*sig)
			} else {
				e.tracker.Submit(*sig)
			}
		}

		e.checkTripleDivergence(snap)

		if confirmed := e.tracker.Advance(symbol, timeframe, candles); confirmed != nil {
			e.enrich(confirmed, snap)
			e.session.Add(*confirmed)
		}

		e.session.ObserveExtremes(snap)
	}
}

// checkTripleDivergence re-tests remembered divergences for this symbol and
// timeframe against the fresh candles. A third extreme extending the pattern
// refreshes the remembered signal and re-submits it as a candidate.
func (e *Engine) checkTripleDivergence(snap strategy.Snapshot) {
	for _, dir := range []model.Direction{model.Bullish, model.Bearish} {
		key := model.Signal{
			Symbol:    snap.Symbol,
			Strategy:  model.StrategyRSIDivergence,
			Direction: dir,
			Timeframe: snap.Timeframe,
		}.Key()
		seed, ok := e.lastDivergence[key]
		if !ok {
			continue
		}
		refreshed := strategy.TripleDivergence(snap, seed)
		if refreshed == nil {
			continue
		}
		e.lastDivergence[key] = *refreshed
		e.tracker.Submit(*refreshed)
		e.logger.Info("triple_divergence_detected",
			zap.String("symbol", snap.Symbol),
			zap.String("timeframe", string(snap.Timeframe)),
			zap.String("direction", string(dir)))
	}
}

// enrich stamps a confirmed signal with the market state at confirmation
// time, which is what the ranker scores on.
func (e *Engine) enrich(sig *model.Signal, snap strategy.Snapshot) {
	if len(snap.RSI14) > 0 {
		sig.RSIValue = snap.RSI14[len(snap.RSI14)-1]
	}
	if len(snap.Bands) > 0 && len(snap.Candles) > 0 {
		lastPrice := snap.Candles[len(snap.Candles)-1].Close
		band := snap.Bands[len(snap.Bands)-1]
		sig.BBPercentage = strategy.BBPercentage(sig.Direction, lastPrice, band)
	}
}

// finishSession ranks the session's signals, closes positions that turned
// bearish, places new pending buys from the bullish side, and flushes the
// session notifications.
func (e *Engine) finishSession(now time.Time) {
	signals := e.session.Finish(e.dominantSymbol, e.rankLimit)

	var src model.TradeSource
	for _, sig := range signals {
		opp := model.Opportunity{Signal: sig, Price: e.referencePrice(sig)}
		switch sig.Direction {
		case model.Bullish:
			src.Bullish = append(src.Bullish, opp)
		case model.Bearish:
			src.Bearish = append(src.Bearish, opp)
		}
	}

	e.book.ForceCloseOnBearish(src.Bearish)
	e.book.PlaceOrders(src, now)

	e.notifier.SendOpportunityList(signals)
	e.notifier.FlushSessionMessages()

	if len(signals) > 0 {
		e.logger.Info("session_finished",
			zap.Int("signals", len(signals)),
			zap.Int("pending_candidates", e.tracker.PendingCount()))
	}
}

// referencePrice is the freshest known price for a signal's symbol, falling
// back to the detection-time target price before any tick has arrived.
func (e *Engine) referencePrice(sig model.Signal) float64 {
	if price, ok := e.lastPrice[sig.Symbol]; ok {
		return price
	}
	return sig.TargetPrice
}
