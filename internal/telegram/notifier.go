// Package telegram pushes alert messages to a Telegram chat via the bot
// API. With no credentials configured the notifier is a silent no-op, so
// callers never have to branch on whether alerts are enabled.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type Notifier struct {
	token  string
	chatID string
	client *http.Client
}

func New(token, chatID string) *Notifier {
	return &Notifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends one Markdown-formatted message. Delivery failures are
// logged and swallowed; alerting must never disturb the trading loop.
func (n *Notifier) Notify(text string) {
	if n.token == "" || n.chatID == "" {
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token)
	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Warn("telegram notify failed", "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("telegram notify rejected", "status", resp.StatusCode)
	}
}
