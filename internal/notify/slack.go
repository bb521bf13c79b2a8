package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/slack-go/slack"
)

// Notifier announces sweep lifecycle events to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SlackNotifier posts via the Slack API when a bot token is available and
// falls back to an incoming webhook otherwise.
type SlackNotifier struct {
	client     *slack.Client
	channel    string
	webhookURL string
	httpClient *http.Client
}

// NewSlackNotifier reads credentials from the environment. Returns nil when
// neither SLACK_BOT_USER_TOKEN nor SLACK_WEBHOOK_URL is set.
func NewSlackNotifier(channel string) *SlackNotifier {
	token := os.Getenv("SLACK_BOT_USER_TOKEN")
	webhook := os.Getenv("SLACK_WEBHOOK_URL")
	if token == "" && webhook == "" {
		return nil
	}

	n := &SlackNotifier{
		channel:    channel,
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if token != "" {
		n.client = slack.New(token)
	}
	return n
}

// Notify sends one message, preferring the API client.
func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	if s.client != nil {
		_, _, err := s.client.PostMessageContext(ctx, s.channel,
			slack.MsgOptionText(message, false))
		if err != nil {
			return fmt.Errorf("slack post failed: %w", err)
		}
		return nil
	}
	return s.postWebhook(ctx, message)
}

func (s *SlackNotifier) postWebhook(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack notification failed with status: %s", resp.Status)
	}
	return nil
}
