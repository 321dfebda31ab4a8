package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_SendsHistoryWithBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []Turn{{Role: RoleUser, Content: "hola"}}, req.Messages)

		w.Write([]byte(`{"output":"ok"}`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, NewSession("tok"))
	body, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"output":"ok"}`, string(raw))
}

func TestTransport_NoCredentialSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	tr := NewTransport(server.URL, NewSession(""))
	_, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, calls.Load())
}

func TestTransport_EmptyHistory(t *testing.T) {
	tr := NewTransport("http://127.0.0.1:0", NewSession("tok"))
	_, err := tr.Open(context.Background(), nil)
	assert.Error(t, err)
}

func TestTransport_ServerErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusInternalServerError, `{"error":"boom"}`, "boom"},
		{"message field", http.StatusBadGateway, `{"message":"upstream down"}`, "upstream down"},
		{"truncated json", http.StatusInternalServerError, `{"error":"se cortó`, "se cortó"},
		{"plain text", http.StatusServiceUnavailable, `Service Unavailable`, ""},
		{"empty body", http.StatusUnauthorized, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tr := NewTransport(server.URL, NewSession("tok"))
			_, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})

			var srvErr *ServerError
			require.ErrorAs(t, err, &srvErr)
			assert.Equal(t, tt.status, srvErr.Status)
			assert.Equal(t, tt.wantMsg, srvErr.Message)
		})
	}
}

func TestTransport_TimeoutBeforeHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	tr := NewTransport(server.URL, NewSession("tok"), WithTimeout(50*time.Millisecond))
	_, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestTransport_TimeoutMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output":"Gas`))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	tr := NewTransport(server.URL, NewSession("tok"), WithTimeout(100*time.Millisecond))
	body, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})
	require.NoError(t, err)
	defer body.Close()

	_, err = io.ReadAll(body)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestTransport_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	tr := NewTransport(url, NewSession("tok"))
	_, err := tr.Open(context.Background(), []Turn{{Role: RoleUser, Content: "hola"}})

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, MsgNetwork, UserMessage(err))
}
