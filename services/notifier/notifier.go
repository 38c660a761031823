// Package notifier pushes operational alerts, currently only for sustained
// credential-acquisition failures against the Spotify token endpoint.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
)

// Notifier is a single push channel for operational alerts.
type Notifier interface {
	Send(subject, message string) error
}

// TelegramNotifier posts alerts to a Telegram chat via the bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
}

func (t *TelegramNotifier) Send(subject, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)

	payload := map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       fmt.Sprintf("*%s*\n\n%s", subject, message),
		"parse_mode": "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	log.Infof("%s Telegram notification sent to chat %s", logcolors.LogNotifier, t.ChatID)
	return nil
}

// NtfyNotifier posts alerts to an ntfy.sh topic.
type NtfyNotifier struct {
	Topic  string
	Server string // Default: https://ntfy.sh
}

func (n *NtfyNotifier) Send(subject, message string) error {
	server := n.Server
	if server == "" {
		server = "https://ntfy.sh"
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/%s", server, n.Topic), bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %v", err)
	}

	req.Header.Set("Title", subject)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	log.Infof("%s Ntfy notification sent to topic %s", logcolors.LogNotifier, n.Topic)
	return nil
}

// FromEnv builds the notifiers configured through environment variables.
// Returns an empty slice when none are configured.
func FromEnv() []Notifier {
	var notifiers []Notifier

	if botToken := os.Getenv("NOTIFIER_TELEGRAM_BOT_TOKEN"); botToken != "" {
		notifiers = append(notifiers, &TelegramNotifier{
			BotToken: botToken,
			ChatID:   os.Getenv("NOTIFIER_TELEGRAM_CHAT_ID"),
		})
		log.Infof("%s Telegram notifier enabled", logcolors.LogNotifier)
	}

	if topic := os.Getenv("NOTIFIER_NTFY_TOPIC"); topic != "" {
		notifiers = append(notifiers, &NtfyNotifier{
			Topic:  topic,
			Server: os.Getenv("NOTIFIER_NTFY_SERVER"),
		})
		log.Infof("%s Ntfy.sh notifier enabled", logcolors.LogNotifier)
	}

	return notifiers
}

// Broadcast sends the alert to every notifier, logging failures.
func Broadcast(notifiers []Notifier, subject, message string) {
	for _, n := range notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Warnf("%s Failed to send notification: %v", logcolors.LogNotifier, err)
		}
	}
}
