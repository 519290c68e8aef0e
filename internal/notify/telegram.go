// Package notify delivers analyzer alerts through Telegram channels.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Channel selects which Telegram chat a message goes to.
type Channel string

const (
	// ChannelAlerts carries opportunity alerts.
	ChannelAlerts Channel = "alerts"
	// ChannelTrades carries paper trade lifecycle updates.
	ChannelTrades Channel = "trades"
)

// outboundQueueLimit bounds the delivery backlog; messages beyond it are
// dropped so a slow endpoint can never back-pressure the caller.
const outboundQueueLimit = 128

type outbound struct {
	message string
	channel Channel
}

// Telegram pushes messages to the Telegram bot API. Delivery is best
// effort and fully asynchronous: Push only enqueues, a single worker
// goroutine performs the HTTP calls, and failures are logged and dropped.
type Telegram struct {
	endpoint string
	chats    map[Channel]string
	client   *http.Client
	enabled  bool
	queue    chan outbound
	logger   *zap.Logger
}

// NewTelegram creates a Telegram sender and starts its delivery worker.
// With an empty token or disabled flag it degrades to logging only.
func NewTelegram(enabled bool, apiToken, alertsChatID, tradesChatID string, logger *zap.Logger) *Telegram {
	t := &Telegram{
		endpoint: fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", apiToken),
		chats: map[Channel]string{
			ChannelAlerts: alertsChatID,
			ChannelTrades: tradesChatID,
		},
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: enabled && apiToken != "",
		queue:   make(chan outbound, outboundQueueLimit),
		logger:  logger,
	}
	if t.enabled {
		go t.deliverLoop()
	}
	return t
}

// Push enqueues one message for a channel. It never blocks: with a full
// backlog the message is dropped and a warning logged.
func (t *Telegram) Push(message string, channel Channel) {
	if !t.enabled {
		t.logger.Debug("telegram_disabled_message",
			zap.String("channel", string(channel)),
			zap.String("message", message))
		return
	}
	select {
	case t.queue <- outbound{message: message, channel: channel}:
	default:
		t.logger.Warn("telegram_queue_full", zap.String("channel", string(channel)))
	}
}

func (t *Telegram) deliverLoop() {
	for out := range t.queue {
		t.deliver(out)
	}
}

func (t *Telegram) deliver(out outbound) {
	chatID, ok := t.chats[out.channel]
	if !ok || chatID == "" {
		t.logger.Warn("telegram_channel_unconfigured", zap.String("channel", string(out.channel)))
		return
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       out.message,
		"parse_mode": "HTML",
	})
	if err != nil {
		t.logger.Error("telegram_payload_marshal_failed", zap.Error(err))
		return
	}

	resp, err := t.client.Post(t.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.logger.Warn("telegram_push_failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("telegram_push_rejected", zap.Int("status", resp.StatusCode))
	}
}

// SendStartupNotice announces a restart on the alerts channel.
func (t *Telegram) SendStartupNotice() {
	t.Push("🔰 Analyze bot restarted", ChannelAlerts)
}
