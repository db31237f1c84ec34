package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no email API endpoint is set.
var ErrNotConfigured = errors.New("mailer: email api url not configured")

// Message is one outbound email.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// DeliveryError carries the response body of a rejected send.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mailer: email api returned %d", e.StatusCode)
}

// HTTPMailer posts messages as JSON to an email API.
type HTTPMailer struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPMailer(url, apiKey string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{
		url:    strings.TrimSpace(url),
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers msg and returns the provider's message id, if any.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if m == nil || m.url == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		return "", &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var out sendResponse
	if len(raw) > 0 {
		// a non-JSON success body is still a success
		_ = json.Unmarshal(raw, &out)
	}
	return out.ID, nil
}
