package app

import (
	"testing"
	"time"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

func quarterEventAt(t time.Time) int64 {
	return t.Unix() / 60 / 15
}

func TestDueTimeframesAtHourBoundary(t *testing.T) {
	// 13:00 UTC closes a 1h candle but not 2h or 4h.
	at := time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC)
	due := dueTimeframes(quarterEventAt(at))
	if len(due) != 1 || due[0] != model.Timeframe1Hour {
		t.Fatalf("due at 13:00 = %v, want [1h]", due)
	}
}

func TestDueTimeframesAtMidnight(t *testing.T) {
	at := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	due := dueTimeframes(quarterEventAt(at))
	want := []model.Timeframe{
		model.Timeframe1Hour,
		model.Timeframe2Hour,
		model.Timeframe4Hour,
		model.Timeframe12Hour,
		model.Timeframe1Day,
	}
	if len(due) != len(want) {
		t.Fatalf("due at midnight = %v, want %v", due, want)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("due[%d] = %s, want %s", i, due[i], want[i])
		}
	}
}

func TestDueTimeframesOffTheHour(t *testing.T) {
	// 13:15 UTC closes nothing the analyzer trades on.
	at := time.Date(2026, 3, 5, 13, 15, 0, 0, time.UTC)
	if due := dueTimeframes(quarterEventAt(at)); len(due) != 0 {
		t.Fatalf("due at 13:15 = %v, want none", due)
	}
}
