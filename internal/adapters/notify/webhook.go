package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"eventnotifier/internal/domain"
)

// webhookPayload is the JSON body posted to the webhook.
type webhookPayload struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	EventType string `json:"eventType"`
	Year      int    `json:"year"`
}

// WebhookNotifier POSTs the notification to a URL. Any non-2xx status is an error.
type WebhookNotifier struct {
	client *http.Client
	url    string
}

// NewWebhookNotifier returns a WebhookNotifier. A nil client uses http.DefaultClient.
func NewWebhookNotifier(client *http.Client, url string) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{client: client, url: url}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := json.Marshal(webhookPayload{
		Message:   msg.Text(),
		UserID:    msg.UserID,
		EventType: msg.EventType.String(),
		Year:      msg.Year,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
