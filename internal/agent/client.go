// Package agent forwards chat history and a financial snapshot to the
// external agent webhook and streams its reply back.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/brisk/internal/chat"
)

// UpstreamError is a non-2xx response from the webhook.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("agent webhook status %d: %s", e.Status, e.Body)
}

type Client struct {
	url    string
	client *http.Client
}

// NewClient targets the webhook at url. timeout bounds the whole exchange,
// streamed body included.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a webhook URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

type request struct {
	Messages []chat.Turn       `json:"messages"`
	Context  *FinancialContext `json:"context"`
}

// Stream posts the conversation and returns the webhook's body unread.
// The caller must close it.
func (c *Client) Stream(ctx context.Context, messages []chat.Turn, fc *FinancialContext) (io.ReadCloser, error) {
	body, err := json.Marshal(request{Messages: messages, Context: fc})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook call: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return resp.Body, nil
}
