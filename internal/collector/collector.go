// Package collector pulls kline history from Binance and stores it as
// candle rows for the analyzer to read back.
package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/model"
	"github.com/akalankavinda/binance-analyze/internal/storage"
)

// timeframeMinutes converts a timeframe to its candle duration in minutes,
// which also defines the event numbering: eventNumber is the number of
// whole candle durations since the epoch, so it is monotonic and identical
// across restarts.
var timeframeMinutes = map[model.Timeframe]int64{
	model.Timeframe1Min:   1,
	model.Timeframe1Hour:  60,
	model.Timeframe2Hour:  120,
	model.Timeframe4Hour:  240,
	model.Timeframe12Hour: 720,
	model.Timeframe1Day:   1440,
}

// binanceIntervals maps timeframes to the interval strings the Binance
// klines API expects.
var binanceIntervals = map[model.Timeframe]string{
	model.Timeframe1Min:   "1m",
	model.Timeframe1Hour:  "1h",
	model.Timeframe2Hour:  "2h",
	model.Timeframe4Hour:  "4h",
	model.Timeframe12Hour: "12h",
	model.Timeframe1Day:   "1d",
}

// Collector fetches klines for the configured symbols and upserts them
// into the chart store. Market data endpoints need no API credentials.
type Collector struct {
	client  *binance.Client
	charts  *storage.ChartStore
	symbols []string
	limit   int
	logger  *zap.Logger
}

// New creates a collector over the public Binance market data API.
func New(charts *storage.ChartStore, symbols []string, limit int, logger *zap.Logger) *Collector {
	return &Collector{
		client:  binance.NewClient("", ""),
		charts:  charts,
		symbols: symbols,
		limit:   limit,
		logger:  logger,
	}
}

// CollectTimeframe fetches and stores the latest candles for one
// timeframe across all symbols. A failing symbol is logged and skipped so
// one flaky market does not starve the rest.
func (c *Collector) CollectTimeframe(ctx context.Context, tf model.Timeframe) error {
	interval, ok := binanceIntervals[tf]
	if !ok {
		return fmt.Errorf("unsupported timeframe %q", tf)
	}

	for _, symbol := range c.symbols {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(c.limit).
			Do(ctx)
		if err != nil {
			c.logger.Warn("kline_fetch_failed",
				zap.String("symbol", symbol),
				zap.String("interval", interval),
				zap.Error(err))
			continue
		}

		candles := make([]model.Candle, 0, len(klines))
		for _, k := range klines {
			candle, err := parseKline(symbol, tf, k)
			if err != nil {
				c.logger.Warn("kline_parse_failed",
					zap.String("symbol", symbol),
					zap.Error(err))
				continue
			}
			candles = append(candles, candle)
		}
		if err := c.charts.UpsertCandles(ctx, tf, candles); err != nil {
			return fmt.Errorf("storing %s candles for %s: %w", tf, symbol, err)
		}
	}
	return nil
}

func parseKline(symbol string, tf model.Timeframe, k *binance.Kline) (model.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parsing open %q: %w", k.Open, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parsing close %q: %w", k.Close, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parsing high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parsing low %q: %w", k.Low, err)
	}

	return model.Candle{
		Symbol:      symbol,
		Open:        open,
		Close:       closePrice,
		High:        high,
		Low:         low,
		EventNumber: EventNumber(tf, k.OpenTime),
		Timestamp:   time.UnixMilli(k.OpenTime),
	}, nil
}

// EventNumber converts a candle open time in epoch milliseconds to its
// sequential candle index for the timeframe.
func EventNumber(tf model.Timeframe, openTimeMs int64) int64 {
	minutes := timeframeMinutes[tf]
	if minutes == 0 {
		minutes = 1
	}
	return openTimeMs / (minutes * 60_000)
}
