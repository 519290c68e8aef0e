package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

// Persistence keys for the order book state.
const (
	keyAccountState  = "accountState"
	keyPendingBuys   = "pendingBuyOrders"
	keyPendingSells  = "pendingSellOrders"
	boostWindow      = time.Hour
	statusStackLimit = 10
)

// stopProfitPercent is the profit target distance by timeframe. Divergence
// trades get the wider divergenceStopProfitPercent table since they aim at
// a larger reversal.
var stopProfitPercent = map[model.Timeframe]float64{
	model.Timeframe1Hour:  1,
	model.Timeframe2Hour:  1.5,
	model.Timeframe4Hour:  2,
	model.Timeframe12Hour: 4,
	model.Timeframe1Day:   8,
}

var divergenceStopProfitPercent = map[model.Timeframe]float64{
	model.Timeframe1Hour:  2,
	model.Timeframe2Hour:  3,
	model.Timeframe4Hour:  5,
	model.Timeframe12Hour: 10,
	model.Timeframe1Day:   15,
}

var stopLossPercent = map[model.Timeframe]float64{
	model.Timeframe1Hour:  3,
	model.Timeframe2Hour:  4.5,
	model.Timeframe4Hour:  7.5,
	model.Timeframe12Hour: 15,
	model.Timeframe1Day:   24,
}

// maxHoldHours is how long an active trade may stay open before it is
// force-closed at the current price.
var maxHoldHours = map[model.Timeframe]int{
	model.Timeframe1Hour:  2,
	model.Timeframe2Hour:  3,
	model.Timeframe4Hour:  4,
	model.Timeframe12Hour: 6,
	model.Timeframe1Day:   10,
}

// StateStore persists order book state between restarts. Save is
// fire-and-forget; Load reports whether a value was found.
type StateStore interface {
	Save(key string, value any)
	Load(key string, into any) bool
}

// Reporter receives order lifecycle events for user-facing notification.
// Implementations must never block or fail the order book.
type Reporter interface {
	AddSessionSignal(trade model.PaperTrade, sig model.Signal)
	AddBuyOrderHit(trade model.PaperTrade)
	AddOrderExpired(trade model.PaperTrade)
	AddOrderStopProfit(trade model.PaperTrade)
	AddOrderStopLoss(trade model.PaperTrade)
	AddOrderSoldNoLoss(trade model.PaperTrade)
	AddOrderSoldWithLoss(trade model.PaperTrade)
	NotifyTradesPaused()
	NotifyTradesResumed()
}

// BookConfig holds the paper trading parameters.
type BookConfig struct {
	DominantSymbol        string
	InitialBalanceUSD     float64
	MinTradeAmountUSD     float64
	MinProfitPercent      float64
	TradeFeePercent       float64
	BuyBufferPercent      float64
	SessionPlaceLimit     int
	ActiveOrderLimit      int
	BoostedOrderLimit     int
	PendingBuyExpireHours int
}

// AccountSummary is a read-only snapshot of the paper account for
// periodic status notifications.
type AccountSummary struct {
	BalanceUSD        float64
	ProfitTradeCount  int
	TotalTradeCount   int
	TotalProfit       float64
	PendingBuyCount   int
	ActiveOrderCount  int
	MinTradeAmountUSD float64
	Paused            bool
}

// Book is the paper-trade order book. It owns the pending-buy list, the
// active (pending-sell) list and the account state exclusively; all methods
// must be called from a single goroutine.
//
// Orders move pending-buy -> active -> closed. Hidden orders run the full
// lifecycle and drive the loss-streak circuit breaker through their stop
// hits, but never touch the balance or the visible trade counters.
type Book struct {
	cfg      BookConfig
	state    model.AccountState
	pending  []model.PaperTrade
	active   []model.PaperTrade
	boostEnd time.Time

	store    StateStore
	reporter Reporter
	logger   *zap.Logger
}

// NewBook creates an order book with a fresh account.
func NewBook(cfg BookConfig, store StateStore, reporter Reporter, logger *zap.Logger) *Book {
	return &Book{
		cfg: cfg,
		state: model.AccountState{
			BalanceUSD:        cfg.InitialBalanceUSD,
			RealOrdersAllowed: true,
		},
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

// Bootstrap restores persisted state. Missing keys keep the fresh defaults,
// so a first run starts with the configured balance and resumed trading.
func (b *Book) Bootstrap() {
	if b.store.Load(keyAccountState, &b.state) {
		b.logger.Info("account_state_restored",
			zap.Float64("balance_usd", b.state.BalanceUSD),
			zap.Int("total_trades", b.state.TotalTradeCount),
			zap.Bool("paused", !b.state.RealOrdersAllowed))
	}
	b.store.Load(keyPendingBuys, &b.pending)
	b.store.Load(keyPendingSells, &b.active)
}

// PlaceOrders turns this session's bullish opportunities into pending buy
// orders. At most SessionPlaceLimit orders are inserted per call; every
// insert replaces any worse-priced order with the same (symbol, timeframe)
// key so duplicates never co-exist.
func (b *Book) PlaceOrders(src model.TradeSource, now time.Time) {
	placed := 0
	for _, opp := range src.Bullish {
		sig := opp.Signal
		if sig.Symbol == b.cfg.DominantSymbol && sig.Strategy == model.StrategyRSIDivergence {
			// A dominant-symbol divergence tends to lift the whole market,
			// so open the trade slots wide for a while.
			b.boostEnd = now.Add(boostWindow)
			b.logger.Info("active_order_limit_boosted",
				zap.Int("limit", b.cfg.BoostedOrderLimit),
				zap.Time("until", b.boostEnd))
		}

		buyPrice := opp.Price / 100 * (100 - b.cfg.BuyBufferPercent)
		stopProfit := b.stopProfitFor(buyPrice, sig.Timeframe, sig.Strategy)
		minProfitSell := buyPrice / 100 * (100 + b.cfg.MinProfitPercent + b.cfg.TradeFeePercent)

		recentlyLost := b.hasRecentlyLost(sig.Symbol)
		hidden := recentlyLost || !b.state.RealOrdersAllowed

		trade := model.PaperTrade{
			Symbol:        sig.Symbol,
			Amount:        model.RoundPrice(b.cfg.MinTradeAmountUSD / buyPrice),
			BuyPrice:      model.RoundPrice(buyPrice),
			CurrentPrice:  model.RoundPrice(buyPrice),
			StopLoss:      model.RoundPrice(b.stopLossFor(buyPrice, sig.Timeframe)),
			StopProfit:    model.RoundPrice(stopProfit),
			ZeroLossLimit: model.RoundPrice(buyPrice / 100 * (100 + b.cfg.TradeFeePercent)),
			Hidden:        hidden,
			Timeframe:     sig.Timeframe,
			Strategy:      sig.Strategy,
			PlacedAt:      now,
		}

		// A same-key order may be challenged on price, but visible exposure
		// for the symbol on any other key still blocks the placement, so a
		// symbol never holds two visible pending buys.
		canPlace := !b.hasVisiblePendingBuyExcept(sig.Symbol, sig.Timeframe) &&
			!b.hasVisibleActive(sig.Symbol) &&
			stopProfit >= minProfitSell &&
			placed < b.cfg.SessionPlaceLimit

		if canPlace && b.insertPendingBuy(trade) {
			placed++
			b.store.Save(keyPendingBuys, b.pending)
		}

		if !recentlyLost {
			b.reporter.AddSessionSignal(trade, sig)
		}
	}
}

// insertPendingBuy applies the price-improvement rule: an existing order
// with the same (symbol, timeframe) key at an equal or better price wins
// and blocks the insert; a worse-priced one is evicted first.
func (b *Book) insertPendingBuy(trade model.PaperTrade) bool {
	kept := make([]model.PaperTrade, 0, len(b.pending)+1)
	for _, item := range b.pending {
		if item.Symbol == trade.Symbol && item.Timeframe == trade.Timeframe {
			if item.BuyPrice <= trade.BuyPrice {
				return false
			}
			continue
		}
		kept = append(kept, item)
	}
	b.pending = append([]model.PaperTrade{trade}, kept...)

	hiddenText := ""
	if trade.Hidden {
		hiddenText = " hidden"
	}
	b.logger.Info("paper_trade_placed"+hiddenText,
		zap.String("symbol", trade.Symbol),
		zap.String("timeframe", string(trade.Timeframe)),
		zap.String("strategy", string(trade.Strategy)),
		zap.Float64("buy_price", trade.BuyPrice))
	return true
}

// OnTicks processes one batch of live prices: fills pending buys whose
// price was hit, expires stale pending buys, and closes active trades
// whose stops or hold limits were reached.
func (b *Book) OnTicks(ticks map[string]float64, now time.Time) {
	b.evaluateFills(ticks, now)
	b.evaluateExits(ticks, now)
	b.store.Save(keyPendingBuys, b.pending)
	b.store.Save(keyPendingSells, b.active)
	b.store.Save(keyAccountState, b.state)
}

func (b *Book) evaluateFills(ticks map[string]float64, now time.Time) {
	kept := make([]model.PaperTrade, 0, len(b.pending))
	filledVisible := false

	for _, order := range b.pending {
		price, ok := ticks[order.Symbol]
		if !ok {
			kept = append(kept, order)
			continue
		}
		order.CurrentPrice = price
		if filledVisible {
			order.Hidden = true
		}

		switch {
		case b.balanceIsEnough() && price <= order.BuyPrice && b.hasTradeSlot(order, now):
			b.active = append(b.active, order)
			b.logFill(order)
			if !order.Hidden {
				b.state.BalanceUSD -= b.cfg.MinTradeAmountUSD
				b.reporter.AddBuyOrderHit(order)
				// One real fill per tick batch; the rest go dark so only
				// a single position consumes real balance at a time.
				filledVisible = true
				for i := range kept {
					kept[i].Hidden = true
				}
			}
		case now.Sub(order.PlacedAt) > time.Duration(b.cfg.PendingBuyExpireHours)*time.Hour:
			if b.state.RealOrdersAllowed {
				b.reporter.AddOrderExpired(order)
			}
			b.logger.Info("pending_buy_expired",
				zap.String("symbol", order.Symbol),
				zap.String("timeframe", string(order.Timeframe)))
		default:
			kept = append(kept, order)
		}
	}
	b.pending = kept
}

func (b *Book) evaluateExits(ticks map[string]float64, now time.Time) {
	i := 0
	for i < len(b.active) {
		price, ok := ticks[b.active[i].Symbol]
		if !ok {
			i++
			continue
		}
		b.active[i].CurrentPrice = price

		stopHit := price <= b.active[i].StopLoss || price >= b.active[i].StopProfit
		heldTooLong := now.Sub(b.active[i].PlacedAt) > b.maxHoldFor(b.active[i].Timeframe)
		if stopHit || heldTooLong {
			b.closeAt(i)
			continue
		}
		i++
	}
}

// ForceCloseOnBearish immediately closes active trades whose symbol and
// timeframe match a bearish opportunity, using the bearish reference price
// as the exit price regardless of stop levels. Signals without a usable
// reference price sell at the trade's last tracked price instead.
func (b *Book) ForceCloseOnBearish(bearish []model.Opportunity) {
	for _, bear := range bearish {
		i := 0
		for i < len(b.active) {
			if b.active[i].Symbol == bear.Signal.Symbol &&
				b.active[i].Timeframe == bear.Signal.Timeframe {
				if bear.Price > 0 {
					b.active[i].CurrentPrice = bear.Price
				}
				b.closeAt(i)
				continue
			}
			i++
		}
	}
}

// closeAt settles and removes the active trade at index i. The trade's
// CurrentPrice is the exit price. Wins and losses at the stops feed the
// streak stack; a close between the stops is neutral and does not.
func (b *Book) closeAt(i int) {
	trade := b.active[i]
	win := trade.CurrentPrice >= trade.StopProfit
	loss := trade.CurrentPrice <= trade.StopLoss

	if win {
		b.removeFromRecentlyLost(trade.Symbol)
		b.pushOrderStatus(model.OutcomeSuccess)
	} else if loss {
		b.addToRecentlyLost(trade.Symbol)
		b.pushOrderStatus(model.OutcomeFailed)
	}

	soldUSD := model.RoundPrice(trade.Amount * trade.CurrentPrice)
	b.active = append(b.active[:i], b.active[i+1:]...)

	hiddenText := ""
	if trade.Hidden {
		hiddenText = " hidden"
	}
	b.logger.Info("paper_trade_sold"+hiddenText,
		zap.String("symbol", trade.Symbol),
		zap.String("timeframe", string(trade.Timeframe)),
		zap.Float64("price", model.RoundPrice(trade.CurrentPrice)),
		zap.Float64("sold_usd", soldUSD))

	if !trade.Hidden {
		if win {
			b.state.ProfitTradeCount++
		}
		b.state.TotalTradeCount++
		b.state.TotalProfit += soldUSD - b.cfg.MinTradeAmountUSD
		b.state.BalanceUSD += soldUSD

		b.logger.Info("account_totals",
			zap.Float64("total_profit", model.RoundPrice(b.state.TotalProfit)),
			zap.Int("profit_trades", b.state.ProfitTradeCount),
			zap.Int("total_trades", b.state.TotalTradeCount))

		switch {
		case win:
			b.reporter.AddOrderStopProfit(trade)
		case loss:
			b.reporter.AddOrderStopLoss(trade)
		case trade.CurrentPrice >= trade.ZeroLossLimit:
			b.reporter.AddOrderSoldNoLoss(trade)
		default:
			b.reporter.AddOrderSoldWithLoss(trade)
		}
	}

	b.maybeToggleRiskControl()

	b.store.Save(keyAccountState, b.state)
	b.store.Save(keyPendingBuys, b.pending)
	b.store.Save(keyPendingSells, b.active)
}

// maybeToggleRiskControl runs the loss-streak circuit breaker. With enough
// history, a failure on top of the status stack pauses real trading and
// unwinds all open exposure; three successes in a row on top resume it.
func (b *Book) maybeToggleRiskControl() {
	if len(b.state.StatusStack) <= 3 {
		return
	}
	if b.state.RealOrdersAllowed {
		if b.state.StatusStack[0] == model.OutcomeFailed {
			b.state.RealOrdersAllowed = false
			b.logger.Warn("paused_placing_orders")
			b.reporter.NotifyTradesPaused()
			b.setAllPendingHidden(true)
			for len(b.active) > 0 {
				b.closeAt(0)
			}
		}
	} else {
		resumed := b.state.StatusStack[0] == model.OutcomeSuccess &&
			b.state.StatusStack[1] == model.OutcomeSuccess &&
			b.state.StatusStack[2] == model.OutcomeSuccess
		if resumed {
			b.state.RealOrdersAllowed = true
			b.setAllPendingHidden(false)
			b.logger.Info("resumed_placing_orders")
			b.reporter.NotifyTradesResumed()
		}
	}
	b.store.Save(keyAccountState, b.state)
}

// Summary reports the current account for periodic status updates. Hidden
// orders are excluded from the visible counts.
func (b *Book) Summary() AccountSummary {
	summary := AccountSummary{
		BalanceUSD:        b.state.BalanceUSD,
		ProfitTradeCount:  b.state.ProfitTradeCount,
		TotalTradeCount:   b.state.TotalTradeCount,
		TotalProfit:       b.state.TotalProfit,
		MinTradeAmountUSD: b.cfg.MinTradeAmountUSD,
		Paused:            !b.state.RealOrdersAllowed,
	}
	for _, order := range b.pending {
		if !order.Hidden {
			summary.PendingBuyCount++
		}
	}
	for _, trade := range b.active {
		if !trade.Hidden {
			summary.ActiveOrderCount++
		}
	}
	return summary
}

// PendingOrders returns a copy of the pending buy list.
func (b *Book) PendingOrders() []model.PaperTrade {
	out := make([]model.PaperTrade, len(b.pending))
	copy(out, b.pending)
	return out
}

// ActiveOrders returns a copy of the active trade list.
func (b *Book) ActiveOrders() []model.PaperTrade {
	out := make([]model.PaperTrade, len(b.active))
	copy(out, b.active)
	return out
}

func (b *Book) logFill(order model.PaperTrade) {
	hiddenText := ""
	if order.Hidden {
		hiddenText = " hidden"
	}
	b.logger.Info("paper_trade_filled"+hiddenText,
		zap.String("symbol", order.Symbol),
		zap.String("timeframe", string(order.Timeframe)),
		zap.String("strategy", string(order.Strategy)),
		zap.Float64("buy_price", order.BuyPrice))
}

func (b *Book) stopProfitFor(buyPrice float64, tf model.Timeframe, strat model.Strategy) float64 {
	table := stopProfitPercent
	fallback := 1.0
	if strat == model.StrategyRSIDivergence {
		table = divergenceStopProfitPercent
		fallback = 2.0
	}
	pct, ok := table[tf]
	if !ok {
		pct = fallback
	}
	return buyPrice / 100 * (100 + pct + b.cfg.TradeFeePercent)
}

func (b *Book) stopLossFor(buyPrice float64, tf model.Timeframe) float64 {
	pct, ok := stopLossPercent[tf]
	if !ok {
		pct = 3
	}
	return buyPrice / 100 * (100 - pct)
}

func (b *Book) maxHoldFor(tf model.Timeframe) time.Duration {
	hours, ok := maxHoldHours[tf]
	if !ok {
		hours = 2
	}
	return time.Duration(hours) * time.Hour
}

func (b *Book) balanceIsEnough() bool {
	return b.state.BalanceUSD > b.cfg.MinTradeAmountUSD
}

// hasTradeSlot reports whether a fill may proceed. Hidden orders always
// have a slot; visible orders share a bounded set of concurrent positions.
func (b *Book) hasTradeSlot(order model.PaperTrade, now time.Time) bool {
	if order.Hidden {
		return true
	}
	limit := b.cfg.ActiveOrderLimit
	if now.Before(b.boostEnd) {
		limit = b.cfg.BoostedOrderLimit
	}
	count := 0
	for _, trade := range b.active {
		if !trade.Hidden {
			count++
		}
	}
	return count < limit
}

// hasVisiblePendingBuyExcept reports whether a visible pending buy exists
// for the symbol on any key other than (symbol, tf). The same-key order is
// excluded so it can be challenged on price without blocking itself.
func (b *Book) hasVisiblePendingBuyExcept(symbol string, tf model.Timeframe) bool {
	for _, order := range b.pending {
		if order.Symbol == symbol && order.Timeframe != tf && !order.Hidden {
			return true
		}
	}
	return false
}

func (b *Book) hasVisibleActive(symbol string) bool {
	for _, trade := range b.active {
		if trade.Symbol == symbol && !trade.Hidden {
			return true
		}
	}
	return false
}

func (b *Book) setAllPendingHidden(hidden bool) {
	for i := range b.pending {
		b.pending[i].Hidden = hidden
	}
	b.store.Save(keyPendingBuys, b.pending)
}

func (b *Book) pushOrderStatus(status model.OrderOutcome) {
	b.state.StatusStack = append([]model.OrderOutcome{status}, b.state.StatusStack...)
	if len(b.state.StatusStack) > statusStackLimit {
		b.state.StatusStack = b.state.StatusStack[:statusStackLimit-1]
	}
	b.store.Save(keyAccountState, b.state)
}

func (b *Book) hasRecentlyLost(symbol string) bool {
	for _, s := range b.state.RecentlyLost {
		if s == symbol {
			return true
		}
	}
	return false
}

func (b *Book) addToRecentlyLost(symbol string) {
	if !b.hasRecentlyLost(symbol) {
		b.state.RecentlyLost = append(b.state.RecentlyLost, symbol)
	}
}

func (b *Book) removeFromRecentlyLost(symbol string) {
	kept := b.state.RecentlyLost[:0]
	for _, s := range b.state.RecentlyLost {
		if s != symbol {
			kept = append(kept, s)
		}
	}
	b.state.RecentlyLost = kept
}
