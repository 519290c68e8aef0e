// Package app wires the analyzer components together and runs the
// collection and analysis schedule.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akalankavinda/binance-analyze/internal/api"
	"github.com/akalankavinda/binance-analyze/internal/collector"
	"github.com/akalankavinda/binance-analyze/internal/config"
	"github.com/akalankavinda/binance-analyze/internal/engine"
	"github.com/akalankavinda/binance-analyze/internal/logging"
	"github.com/akalankavinda/binance-analyze/internal/model"
	"github.com/akalankavinda/binance-analyze/internal/notify"
	"github.com/akalankavinda/binance-analyze/internal/storage"
)

// App is the analyzer daemon. It owns the component lifecycles and the
// timer loop that turns wall clock time into engine events.
type App struct {
	cfg *config.Config
}

// New creates the application with the given configuration.
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Run starts all components and blocks until a shutdown signal arrives or
// a component fails fatally.
func (a *App) Run() error {
	log, err := logging.Build(a.cfg.App.Env, a.cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("analyzer_starting",
		zap.String("env", a.cfg.App.Env),
		zap.Strings("symbols", a.cfg.Storage.Symbols))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	charts, err := storage.NewChartStore(ctx,
		a.cfg.Storage.PostgresDSN,
		a.cfg.Storage.Symbols,
		a.cfg.Storage.HistoryLimit,
		log)
	if err != nil {
		return fmt.Errorf("opening chart store: %w", err)
	}
	defer charts.Close()
	if err := charts.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("preparing candle schema: %w", err)
	}

	states := storage.NewStateStore(
		a.cfg.Redis.Address,
		a.cfg.Redis.Password,
		a.cfg.Redis.DB,
		log)
	defer states.Close()

	tg := notify.NewTelegram(
		a.cfg.Telegram.Enabled,
		a.cfg.Telegram.APIToken,
		a.cfg.Telegram.AlertsChatID,
		a.cfg.Telegram.Alerts2ChatID,
		log)
	builder := notify.NewBuilder(tg)

	book := engine.NewBook(engine.BookConfig{
		DominantSymbol:        a.cfg.Trading.DominantSymbol,
		InitialBalanceUSD:     a.cfg.Trading.InitialBalanceUSD,
		MinTradeAmountUSD:     a.cfg.Trading.MinTradeAmountUSD,
		MinProfitPercent:      a.cfg.Trading.MinProfitPercent,
		TradeFeePercent:       a.cfg.Trading.TradeFeePercent,
		BuyBufferPercent:      a.cfg.Trading.BuyBufferPercent,
		SessionPlaceLimit:     a.cfg.Trading.SessionPlaceLimit,
		ActiveOrderLimit:      a.cfg.Trading.ActiveOrderLimit,
		BoostedOrderLimit:     a.cfg.Trading.BoostedOrderLimit,
		PendingBuyExpireHours: a.cfg.Trading.PendingBuyExpireHours,
	}, states, builder, log)
	book.Bootstrap()

	eng := engine.New(
		a.cfg.Trading.DominantSymbol,
		a.cfg.Analysis.RankLimit,
		book, builder, log)

	var coll *collector.Collector
	if a.cfg.Collector.Enabled {
		coll = collector.New(charts, a.cfg.Storage.Symbols, int(a.cfg.Storage.HistoryLimit), log)
		log.Info("collector_enabled")
	}

	go eng.Run(ctx)
	tg.SendStartupNotice()

	errCh := make(chan error, 1)
	if a.cfg.API.Enabled {
		server := api.NewServer(a.cfg.API.Address, eng, log)
		go func() {
			if err := server.Run(ctx); err != nil {
				errCh <- fmt.Errorf("status server: %w", err)
			}
		}()
	}

	go a.runSchedule(ctx, charts, coll, eng, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutdown_signal_received", zap.String("signal", sig.String()))
		cancel()
		return nil
	case err := <-errCh:
		log.Error("component_failed", zap.Error(err))
		cancel()
		return err
	}
}

// runSchedule drives the engine off a one-minute ticker. Every minute the
// latest prices are fed in as a tick; every quarter hour the timeframes
// whose candles just closed are re-analyzed and the session is finished.
func (a *App) runSchedule(ctx context.Context, charts *storage.ChartStore, coll *collector.Collector, eng *engine.Engine, log *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.cycle(ctx, now, charts, coll, eng, log)
		}
	}
}

// cycle is one scheduler pass. Collection and query errors are logged and
// retried on the next tick rather than taking the daemon down.
func (a *App) cycle(ctx context.Context, now time.Time, charts *storage.ChartStore, coll *collector.Collector, eng *engine.Engine, log *zap.Logger) {
	if coll != nil {
		if err := coll.CollectTimeframe(ctx, model.Timeframe1Min); err != nil {
			log.Warn("minute_collection_failed", zap.Error(err))
		}
	}

	ticks, err := charts.LatestCloses(ctx)
	if err != nil {
		log.Warn("latest_closes_failed", zap.Error(err))
	} else if len(ticks) > 0 {
		eng.OnPriceTick(ticks, now)
	}

	minuteEvent := now.Unix() / 60
	if minuteEvent%15 == 0 {
		a.runSession(ctx, now, minuteEvent/15, charts, coll, eng, log)
	}
	if minuteEvent%60 == 0 {
		eng.OnHourMark(now)
	}
}

// runSession analyzes every timeframe whose candle closed at this quarter
// hour and then finishes the session. quarterEvent counts 15-minute marks
// since the epoch, so the modulo picks out exact close boundaries.
func (a *App) runSession(ctx context.Context, now time.Time, quarterEvent int64, charts *storage.ChartStore, coll *collector.Collector, eng *engine.Engine, log *zap.Logger) {
	due := dueTimeframes(quarterEvent)
	for _, tf := range due {
		if coll != nil {
			if err := coll.CollectTimeframe(ctx, tf); err != nil {
				log.Warn("timeframe_collection_failed",
					zap.String("timeframe", string(tf)), zap.Error(err))
			}
		}
		chart, err := charts.FetchSeries(ctx, tf)
		if err != nil {
			log.Warn("chart_fetch_failed",
				zap.String("timeframe", string(tf)), zap.Error(err))
			continue
		}
		eng.OnTimeframeClose(tf, chart, now)
	}
	eng.OnSessionFinish(now)
}

// dueTimeframes returns the timeframes whose candle closes on this
// 15-minute mark, shortest first so faster signals enter the session
// before slower ones.
func dueTimeframes(quarterEvent int64) []model.Timeframe {
	var due []model.Timeframe
	if quarterEvent%4 == 0 {
		due = append(due, model.Timeframe1Hour)
	}
	if quarterEvent%8 == 0 {
		due = append(due, model.Timeframe2Hour)
	}
	if quarterEvent%16 == 0 {
		due = append(due, model.Timeframe4Hour)
	}
	if quarterEvent%48 == 0 {
		due = append(due, model.Timeframe12Hour)
	}
	if quarterEvent%96 == 0 {
		due = append(due, model.Timeframe1Day)
	}
	return due
}
