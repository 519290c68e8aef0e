package notify

import (
	"fmt"
	"strings"

	"github.com/akalankavinda/binance-analyze/internal/engine"
	"github.com/akalankavinda/binance-analyze/internal/model"
)

const (
	signalHistoryLimit = 100
	// reAlertCandleGap is how many candles must pass before the same
	// (symbol, timeframe, strategy) signal is announced again.
	reAlertCandleGap = 20
)

// Sender delivers a formatted message to a channel.
type Sender interface {
	Push(message string, channel Channel)
}

// Builder batches order book events into session-level messages and
// formats them for Telegram. It implements the engine's Notifier.
type Builder struct {
	tg Sender

	signalHistory []model.Signal

	sessionSignals []sessionSignal
	buyHits        []model.PaperTrade
	expired        []model.PaperTrade
	stopProfits    []model.PaperTrade
	stopLosses     []model.PaperTrade
	noLoss         []model.PaperTrade
	withLoss       []model.PaperTrade
}

type sessionSignal struct {
	trade  model.PaperTrade
	signal model.Signal
}

// NewBuilder creates a message builder on top of a message sender.
func NewBuilder(tg Sender) *Builder {
	return &Builder{tg: tg}
}

// AddSessionSignal buffers a potential trade for the end-of-session buy
// signal message.
func (b *Builder) AddSessionSignal(trade model.PaperTrade, sig model.Signal) {
	b.sessionSignals = append(b.sessionSignals, sessionSignal{trade: trade, signal: sig})
}

// AddBuyOrderHit buffers a filled buy order.
func (b *Builder) AddBuyOrderHit(trade model.PaperTrade) {
	b.buyHits = append(b.buyHits, trade)
}

// AddOrderExpired buffers an expired pending buy.
func (b *Builder) AddOrderExpired(trade model.PaperTrade) {
	b.expired = append(b.expired, trade)
}

// AddOrderStopProfit buffers a trade closed at its profit target.
func (b *Builder) AddOrderStopProfit(trade model.PaperTrade) {
	b.stopProfits = append(b.stopProfits, trade)
}

// AddOrderStopLoss buffers a trade closed at its stop loss.
func (b *Builder) AddOrderStopLoss(trade model.PaperTrade) {
	b.stopLosses = append(b.stopLosses, trade)
}

// AddOrderSoldNoLoss buffers a neutral close above break-even.
func (b *Builder) AddOrderSoldNoLoss(trade model.PaperTrade) {
	b.noLoss = append(b.noLoss, trade)
}

// AddOrderSoldWithLoss buffers a neutral close below break-even.
func (b *Builder) AddOrderSoldWithLoss(trade model.PaperTrade) {
	b.withLoss = append(b.withLoss, trade)
}

// NotifyTradesPaused announces the loss-streak circuit breaker opening.
func (b *Builder) NotifyTradesPaused() {
	b.tg.Push("⛔ Paused placing new orders after a losing streak.\nSelling active orders to minimize risk.", ChannelTrades)
}

// NotifyTradesResumed announces trading picking back up.
func (b *Builder) NotifyTradesResumed() {
	b.tg.Push("✅ Resumed placing new orders.", ChannelTrades)
}

// SendOpportunityList formats and sends this session's signals, skipping
// signals already announced within the re-alert window.
func (b *Builder) SendOpportunityList(signals []model.Signal) {
	if len(signals) == 0 {
		return
	}
	var sb strings.Builder
	for _, sig := range signals {
		if !b.notRecentlyAnnounced(sig) {
			continue
		}
		trendIcon := "🟢"
		if sig.Direction == model.Bearish {
			trendIcon = "🔴"
		}
		icon, label := strategyBadge(sig)
		fmt.Fprintf(&sb, "%s - %s - %s - %s%s\n",
			trendIcon, model.DisplaySymbol(sig.Symbol), sig.Timeframe, icon, label)
		b.pushToHistory(sig)
	}
	if sb.Len() > 0 {
		b.tg.Push(sb.String(), ChannelAlerts)
	}
}

// FlushSessionMessages sends the buy signal message for orders considered
// this session and clears the buffer.
func (b *Builder) FlushSessionMessages() {
	if len(b.sessionSignals) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString("🚀 Trade setups\n")
	for _, item := range b.sessionSignals {
		fmt.Fprintf(&sb, "%s-%s buy %v | target %v | stop %v\n",
			model.DisplaySymbol(item.trade.Symbol), item.trade.Timeframe,
			item.trade.BuyPrice, item.trade.StopProfit, item.trade.StopLoss)
	}
	b.sessionSignals = nil
	b.tg.Push(sb.String(), ChannelTrades)
}

// FlushOrderMessages sends the buffered fill, close and expiry updates and
// clears the buffers.
func (b *Builder) FlushOrderMessages() {
	b.flushTrades(&b.buyHits, "🟩 Buy order filled", func(t model.PaperTrade) string {
		return fmt.Sprintf("%s-%s at %v", model.DisplaySymbol(t.Symbol), t.Timeframe, t.BuyPrice)
	})
	b.flushTrades(&b.stopProfits, "✅ Stop profit hit", soldLine)
	b.flushTrades(&b.stopLosses, "❌ Stop loss hit", soldLine)
	b.flushTrades(&b.noLoss, "⚪ Sold without loss", soldLine)
	b.flushTrades(&b.withLoss, "🔻 Sold with loss", soldLine)
	b.flushTrades(&b.expired, "⌛ Buy order expired", func(t model.PaperTrade) string {
		return fmt.Sprintf("%s-%s at %v", model.DisplaySymbol(t.Symbol), t.Timeframe, t.BuyPrice)
	})
}

// SendAccountUpdate sends the periodic paper account status.
func (b *Builder) SendAccountUpdate(summary engine.AccountSummary) {
	status := "🟢 active"
	if summary.Paused {
		status = "⛔ paused"
	}
	message := fmt.Sprintf(
		"📊 Account update\nBalance: %v USD\nTotal profit: %v USD\nSuccess rate: %d/%d\nActive orders: %d\nPending buys: %d\nTrading: %s",
		model.RoundPrice(summary.BalanceUSD),
		model.RoundPrice(summary.TotalProfit),
		summary.ProfitTradeCount, summary.TotalTradeCount,
		summary.ActiveOrderCount, summary.PendingBuyCount,
		status)
	b.tg.Push(message, ChannelTrades)
}

func (b *Builder) flushTrades(buffer *[]model.PaperTrade, header string, line func(model.PaperTrade) string) {
	if len(*buffer) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for _, trade := range *buffer {
		sb.WriteString(line(trade) + "\n")
	}
	*buffer = nil
	b.tg.Push(sb.String(), ChannelTrades)
}

func soldLine(t model.PaperTrade) string {
	soldUSD := model.RoundPrice(t.Amount * t.CurrentPrice)
	return fmt.Sprintf("%s-%s at %v for %vUSD",
		model.DisplaySymbol(t.Symbol), t.Timeframe, model.RoundPrice(t.CurrentPrice), soldUSD)
}

// notRecentlyAnnounced checks the signal history for a recent announcement
// of the same (symbol, timeframe, strategy). Divergence and swing signals
// are rare enough that they always pass.
func (b *Builder) notRecentlyAnnounced(sig model.Signal) bool {
	if sig.Strategy == model.StrategyRSIDivergence || sig.Strategy == model.StrategySwingHighLow {
		return true
	}
	for _, item := range b.signalHistory {
		if item.Symbol == sig.Symbol &&
			item.Strategy == sig.Strategy &&
			item.Timeframe == sig.Timeframe {
			return sig.EventNumber > item.EventNumber+reAlertCandleGap
		}
	}
	return true
}

func (b *Builder) pushToHistory(sig model.Signal) {
	b.signalHistory = append([]model.Signal{sig}, b.signalHistory...)
	if len(b.signalHistory) > signalHistoryLimit {
		b.signalHistory = b.signalHistory[:signalHistoryLimit]
	}
}

// strategyBadge returns the icon and label a strategy is announced with.
func strategyBadge(sig model.Signal) (string, string) {
	bullish := sig.Direction == model.Bullish
	switch sig.Strategy {
	case model.StrategyRSIDivergence:
		return "💎", " (RSI-DVG)"
	case model.StrategyRSI3Divergence:
		return "💰", " (RSI3-DVG)"
	case model.StrategyPumpDump:
		if bullish {
			return "🔮", " (PUMP)"
		}
		return "🔮", " (DUMP)"
	case model.StrategyRSIWithBB:
		return "🔥", " (RSI+BB)"
	case model.StrategySwingHighLow:
		if bullish {
			return "🔔", " (SWING-L)"
		}
		return "🔔", " (SWING-H)"
	case model.StrategyRSI3Overextend:
		if bullish {
			return "🔥", " (RSI3-OverSold)"
		}
		return "🔥", " (RSI3-Overbought)"
	case model.StrategyHighestBB:
		return "", " (Highest-BB)"
	case model.StrategyHighestRSI:
		return "", " (Highest-RSI)"
	case model.StrategyLowestBB:
		return "", " (Lowest-BB)"
	case model.StrategyLowestRSI:
		return "", " (Lowest-RSI)"
	default:
		return "", ""
	}
}
