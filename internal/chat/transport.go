package chat

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

	"github.com/kaptinlin/jsonrepair"
)

// DefaultTimeout bounds a whole request, including the streamed body.
const DefaultTimeout = 60 * time.Second

const maxErrorBody = 64 << 10

// Transport posts the conversation to the chat endpoint and hands back the
// streamed response body. It never retries.
type Transport struct {
	endpoint string
	creds    CredentialSource
	client   *http.Client
	timeout  time.Duration
}

// TransportOption customises a Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the default HTTP client. Its own Timeout should be
// zero; the transport enforces the deadline itself.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.client = c }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) { t.timeout = d }
}

// NewTransport builds a transport for endpoint.
func NewTransport(endpoint string, creds CredentialSource, opts ...TransportOption) *Transport {
	t := &Transport{
		endpoint: endpoint,
		creds:    creds,
		client:   &http.Client{},
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type chatRequest struct {
	Messages []Turn `json:"messages"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Open issues the request. The returned body must be closed; reading it past
// the deadline yields a TimeoutError.
func (t *Transport) Open(ctx context.Context, history []Turn) (io.ReadCloser, error) {
	if len(history) == 0 {
		return nil, errors.New("chat: empty history")
	}
	token, ok := t.creds.Credential()
	if !ok {
		return nil, &AuthenticationError{}
	}

	body, err := json.Marshal(chatRequest{Messages: history})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return nil, t.classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	return &streamBody{body: resp.Body, ctx: ctx, cancel: cancel, t: t}, nil
}

func (t *Transport) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{After: t.timeout.String()}
	}
	return &NetworkError{Err: err}
}

// errorMessage pulls "error" or "message" out of an error body. Truncated
// or sloppy JSON is repaired before giving up.
func errorMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil || json.Unmarshal([]byte(repaired), &eb) != nil {
			return ""
		}
	}
	if msg := strings.TrimSpace(eb.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(eb.Message)
}

type streamBody struct {
	body   io.ReadCloser
	ctx    context.Context
	cancel context.CancelFunc
	t      *Transport
}

func (s *streamBody) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, s.t.classify(s.ctx, err)
	}
	return n, err
}

func (s *streamBody) Close() error {
	defer s.cancel()
	return s.body.Close()
}
