// Package push delivers best-effort push notifications through an external
// HTTP gateway. Delivery is never guaranteed and never retried; callers log
// failures and move on.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sender dispatches a push message to a set of recipients.
type Sender interface {
	SendPush(ctx context.Context, title, body string, recipientIDs []string, data map[string]string) error
}

// NoopSender drops every push. Used when no gateway is configured.
type NoopSender struct{}

// SendPush implements Sender by doing nothing.
func (NoopSender) SendPush(context.Context, string, string, []string, map[string]string) error {
	return nil
}

// HTTPSender posts push payloads to a gateway endpoint with a bearer token.
type HTTPSender struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPSender constructs a sender for the given gateway. An empty endpoint
// yields a nil sender; callers should fall back to NoopSender.
func NewHTTPSender(endpoint, token string, timeout time.Duration) *HTTPSender {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

type pushPayload struct {
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Recipients []string          `json:"recipients"`
	Data       map[string]string `json:"data,omitempty"`
}

// SendPush posts the payload to the gateway. Any non-2xx response is an error.
func (s *HTTPSender) SendPush(ctx context.Context, title, body string, recipientIDs []string, data map[string]string) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:      title,
		Body:       body,
		Recipients: recipientIDs,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
