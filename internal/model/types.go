// Package model defines shared data types used across all analyzer modules.
package model

import "time"

// Direction represents the detected trend direction of a signal.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// Timeframe represents a candlestick chart timeframe.
type Timeframe string

const (
	Timeframe1Min   Timeframe = "1m"
	Timeframe5Min   Timeframe = "5m"
	Timeframe15Min  Timeframe = "15m"
	Timeframe30Min  Timeframe = "30m"
	Timeframe1Hour  Timeframe = "1h"
	Timeframe2Hour  Timeframe = "2h"
	Timeframe4Hour  Timeframe = "4h"
	Timeframe12Hour Timeframe = "12h"
	Timeframe1Day   Timeframe = "1D"
)

// Strategy identifies which detection heuristic produced a signal.
type Strategy string

const (
	StrategyRSIDivergence  Strategy = "RSI_DIVERGENCE"
	StrategyRSI3Divergence Strategy = "RSI_3_DIVERGENCE"
	StrategyRSI3Overextend Strategy = "RSI_3PERIOD_OVEREXTEND"
	StrategyRSIWithBB      Strategy = "RSI_WITH_BB"
	StrategyPumpDump       Strategy = "PUMP_OR_DUMP"
	StrategySwingHighLow   Strategy = "SWING_HIGH_LOW"
	StrategyHighestBB      Strategy = "HIGHEST_BB"
	StrategyLowestBB       Strategy = "LOWEST_BB"
	StrategyHighestRSI     Strategy = "HIGHEST_RSI"
	StrategyLowestRSI      Strategy = "LOWEST_RSI"
)

// OrderOutcome is the terminal result of a completed paper trade.
type OrderOutcome string

const (
	OutcomeSuccess OrderOutcome = "success"
	OutcomeFailed  OrderOutcome = "failed"
)

// Candle represents a single OHLC candle. EventNumber is the candle index
// within its timeframe and increases monotonically with time.
type Candle struct {
	Symbol      string    `json:"symbol"`
	Open        float64   `json:"open"`
	Close       float64   `json:"close"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	EventNumber int64     `json:"eventNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChartData maps a symbol to its ordered candle history for one timeframe,
// ascending by event number.
type ChartData map[string][]Candle

// Signal is a finalized directional trade idea produced by a detector.
// RSIValue and BBPercentage are enriched after creation; EventNumber points
// at the candle that anchored the detection.
type Signal struct {
	Symbol       string    `json:"symbol"`
	Strategy     Strategy  `json:"strategy"`
	Direction    Direction `json:"direction"`
	Timeframe    Timeframe `json:"timeframe"`
	EventNumber  int64     `json:"eventNumber"`
	RSIValue     float64   `json:"rsiValue"`
	BBPercentage float64   `json:"bbPercentage"`
	TargetPrice  float64   `json:"targetPrice"`
}

// Key returns the identity of a signal for candidate tracking purposes.
func (s Signal) Key() string {
	return s.Symbol + "|" + string(s.Timeframe) + "|" + string(s.Strategy) + "|" + string(s.Direction)
}

// Opportunity pairs a ranked signal with the live price it was observed at.
type Opportunity struct {
	Signal Signal  `json:"signal"`
	Price  float64 `json:"price"`
}

// TradeSource carries the ranked output of one analysis session into the
// paper order book.
type TradeSource struct {
	Bullish []Opportunity `json:"bullish"`
	Bearish []Opportunity `json:"bearish"`
}

// PaperTrade represents a simulated order. It starts as a pending buy, becomes
// active (pending sell) once the buy price is hit, and is removed when closed.
// Hidden trades move through the full lifecycle but never touch the balance
// or the visible trade counters.
type PaperTrade struct {
	Symbol        string    `json:"symbol"`
	Amount        float64   `json:"amount"`
	BuyPrice      float64   `json:"buyPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	StopLoss      float64   `json:"stopLoss"`
	StopProfit    float64   `json:"stopProfit"`
	ZeroLossLimit float64   `json:"zeroLossLimit"`
	Hidden        bool      `json:"isHiddenTrade"`
	Timeframe     Timeframe `json:"timeFrame"`
	Strategy      Strategy  `json:"strategy"`
	PlacedAt      time.Time `json:"placedAt"`
}

// AccountState holds the persisted paper trading account.
type AccountState struct {
	BalanceUSD        float64        `json:"currentBalanceUsd"`
	ProfitTradeCount  int            `json:"profitTradeCount"`
	TotalTradeCount   int            `json:"totalTradeCount"`
	TotalProfit       float64        `json:"totalProfit"`
	RecentlyLost      []string       `json:"recentlyLostSymbolList"`
	RealOrdersAllowed bool           `json:"placingRealOrdersAllowed"`
	StatusStack       []OrderOutcome `json:"recentOrderStatusStack"`
}
