package strategy

import (
	"testing"

	"github.com/akalankavinda/binance-analyze/internal/model"
)

func TestRankOrdersByScoreAndTruncates(t *testing.T) {
	signals := []model.Signal{
		{Symbol: "ADAUSDT", Direction: model.Bullish, Timeframe: model.Timeframe1Hour, RSIValue: 40, BBPercentage: 50},
		{Symbol: "ETHUSDT", Direction: model.Bullish, Timeframe: model.Timeframe4Hour, RSIValue: 20, BBPercentage: 90},
		{Symbol: "XRPUSDT", Direction: model.Bearish, Timeframe: model.Timeframe2Hour, RSIValue: 75, BBPercentage: 60},
	}

	ranked := Rank(signals, "BTCUSDT", 2)
	if len(ranked) != 2 {
		t.Fatalf("ranked length = %d, want 2", len(ranked))
	}
	// ETH: (100-20)*90*1.4 = 10080, XRP: 75*60*1.2 = 5400, ADA: (100-40)*50*1.1 = 3300
	if ranked[0].Symbol != "ETHUSDT" || ranked[1].Symbol != "XRPUSDT" {
		t.Errorf("ranked order = %s, %s, want ETHUSDT, XRPUSDT", ranked[0].Symbol, ranked[1].Symbol)
	}
}

func TestRankDominantSymbolBypassesLimit(t *testing.T) {
	signals := []model.Signal{
		{Symbol: "ETHUSDT", Direction: model.Bullish, Timeframe: model.Timeframe4Hour, RSIValue: 20, BBPercentage: 90},
		{Symbol: "BTCUSDT", Direction: model.Bearish, Timeframe: model.Timeframe1Hour, RSIValue: 50, BBPercentage: 1},
		{Symbol: "ADAUSDT", Direction: model.Bullish, Timeframe: model.Timeframe1Hour, RSIValue: 40, BBPercentage: 50},
	}

	ranked := Rank(signals, "BTCUSDT", 1)
	if len(ranked) != 2 {
		t.Fatalf("ranked length = %d, want 2", len(ranked))
	}
	if ranked[0].Symbol != "BTCUSDT" {
		t.Errorf("dominant symbol not first: got %s", ranked[0].Symbol)
	}
	if ranked[1].Symbol != "ETHUSDT" {
		t.Errorf("top ranked = %s, want ETHUSDT", ranked[1].Symbol)
	}
}

func TestRankEmptyInput(t *testing.T) {
	if got := Rank(nil, "BTCUSDT", 3); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}
