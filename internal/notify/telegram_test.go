package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPushDeliversInBackground(t *testing.T) {
	bodies := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]string
		_ = json.Unmarshal(data, &body)
		bodies <- body
	}))
	defer srv.Close()

	tg := NewTelegram(true, "token", "chat-alerts", "chat-trades", zap.NewNop())
	tg.endpoint = srv.URL

	tg.Push("hello", ChannelAlerts)

	select {
	case body := <-bodies:
		if body["chat_id"] != "chat-alerts" || body["text"] != "hello" {
			t.Errorf("delivered payload = %v, want alerts chat with text", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was never delivered")
	}
}

func TestPushNeverBlocksOnSlowEndpoint(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tg := NewTelegram(true, "token", "chat-alerts", "chat-trades", zap.NewNop())
	tg.endpoint = srv.URL

	// Well past the queue capacity; the overflow is dropped, not waited on.
	start := time.Now()
	for i := 0; i < outboundQueueLimit+32; i++ {
		tg.Push("tick", ChannelTrades)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("pushes took %v with a stalled endpoint, want immediate return", elapsed)
	}
}
