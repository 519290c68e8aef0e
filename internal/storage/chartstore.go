// Package storage persists candle history in Postgres and order book state
// in Redis.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

// candleTables maps each supported timeframe to its table. One table per
// timeframe keeps the per-symbol history queries on a single small index.
var candleTables = map[model.Timeframe]string{
	model.Timeframe1Min:   "candles_1m",
	model.Timeframe1Hour:  "candles_1h",
	model.Timeframe2Hour:  "candles_2h",
	model.Timeframe4Hour:  "candles_4h",
	model.Timeframe12Hour: "candles_12h",
	model.Timeframe1Day:   "candles_1d",
}

// ChartStore reads and writes candle history in Postgres.
type ChartStore struct {
	pool         *pgxpool.Pool
	symbols      []string
	historyLimit int64
	logger       *zap.Logger
}

// NewChartStore connects to Postgres and verifies the connection.
func NewChartStore(ctx context.Context, dsn string, symbols []string, historyLimit int64, logger *zap.Logger) (*ChartStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &ChartStore{
		pool:         pool,
		symbols:      symbols,
		historyLimit: historyLimit,
		logger:       logger,
	}, nil
}

// Close releases the connection pool.
func (s *ChartStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the candle tables when they do not exist yet.
func (s *ChartStore) EnsureSchema(ctx context.Context) error {
	for _, table := range candleTables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				symbol       TEXT             NOT NULL,
				open         DOUBLE PRECISION NOT NULL,
				close        DOUBLE PRECISION NOT NULL,
				high         DOUBLE PRECISION NOT NULL,
				low          DOUBLE PRECISION NOT NULL,
				event_number BIGINT           NOT NULL,
				ts           TIMESTAMPTZ      NOT NULL,
				PRIMARY KEY (symbol, event_number)
			)`, table)
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("creating table %s: %w", table, err)
		}
	}
	return nil
}

// UpsertCandles writes a batch of candles for one timeframe. Re-fetched
// candles overwrite their previous values, so a partially closed candle is
// corrected by the next collection run.
func (s *ChartStore) UpsertCandles(ctx context.Context, tf model.Timeframe, candles []model.Candle) error {
	table, ok := candleTables[tf]
	if !ok {
		return fmt.Errorf("unsupported timeframe %q", tf)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (symbol, open, close, high, low, event_number, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, event_number) DO UPDATE SET
			open = EXCLUDED.open,
			close = EXCLUDED.close,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			ts = EXCLUDED.ts`, table)

	for _, c := range candles {
		if _, err := s.pool.Exec(ctx, query,
			c.Symbol, c.Open, c.Close, c.High, c.Low, c.EventNumber, c.Timestamp); err != nil {
			return fmt.Errorf("upserting candle %s/%d into %s: %w", c.Symbol, c.EventNumber, table, err)
		}
	}
	return nil
}

// FetchSeries loads the most recent candle history for every configured
// symbol on one timeframe, ascending by event number. Symbols without data
// are simply absent from the result.
func (s *ChartStore) FetchSeries(ctx context.Context, tf model.Timeframe) (model.ChartData, error) {
	table, ok := candleTables[tf]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}
	query := fmt.Sprintf(`
		SELECT symbol, open, close, high, low, event_number, ts
		FROM %s
		WHERE symbol = $1
		ORDER BY event_number DESC
		LIMIT $2`, table)

	chart := make(model.ChartData, len(s.symbols))
	for _, symbol := range s.symbols {
		rows, err := s.pool.Query(ctx, query, symbol, s.historyLimit)
		if err != nil {
			return nil, fmt.Errorf("querying %s for %s: %w", table, symbol, err)
		}
		var candles []model.Candle
		for rows.Next() {
			var c model.Candle
			if err := rows.Scan(&c.Symbol, &c.Open, &c.Close, &c.High, &c.Low, &c.EventNumber, &c.Timestamp); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning candle from %s: %w", table, err)
			}
			candles = append(candles, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading candles from %s: %w", table, err)
		}
		if len(candles) == 0 {
			continue
		}
		reverse(candles)
		chart[symbol] = candles
	}
	return chart, nil
}

// LatestCloses returns the newest 1m close per configured symbol, used as
// the live price feed for the order book.
func (s *ChartStore) LatestCloses(ctx context.Context) (map[string]float64, error) {
	query := `
		SELECT close FROM candles_1m
		WHERE symbol = $1
		ORDER BY event_number DESC
		LIMIT 1`

	ticks := make(map[string]float64, len(s.symbols))
	for _, symbol := range s.symbols {
		var close float64
		if err := s.pool.QueryRow(ctx, query, symbol).Scan(&close); err != nil {
			// Missing tick data for a symbol is retried next cycle.
			continue
		}
		ticks[symbol] = close
	}
	return ticks, nil
}

func reverse(candles []model.Candle) {
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
}
