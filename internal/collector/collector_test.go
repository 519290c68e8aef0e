package collector

import (
	"testing"
	"time"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

func TestEventNumberKnownValues(t *testing.T) {
	// 2026-03-05 13:00:00 UTC.
	openTime := time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC).UnixMilli()

	cases := []struct {
		tf   model.Timeframe
		want int64
	}{
		{model.Timeframe1Min, openTime / 60_000},
		{model.Timeframe1Hour, openTime / 3_600_000},
		{model.Timeframe4Hour, openTime / 14_400_000},
		{model.Timeframe1Day, openTime / 86_400_000},
	}
	for _, tc := range cases {
		if got := EventNumber(tc.tf, openTime); got != tc.want {
			t.Errorf("EventNumber(%s) = %d, want %d", tc.tf, got, tc.want)
		}
	}
}

func TestEventNumberIncrementsPerCandle(t *testing.T) {
	open := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	first := EventNumber(model.Timeframe1Hour, open.UnixMilli())
	second := EventNumber(model.Timeframe1Hour, open.Add(time.Hour).UnixMilli())
	if second != first+1 {
		t.Errorf("consecutive 1h candles numbered %d then %d, want +1", first, second)
	}

	within := EventNumber(model.Timeframe1Hour, open.Add(30*time.Minute).UnixMilli())
	if within != first {
		t.Errorf("mid-candle open time numbered %d, want %d", within, first)
	}
}
