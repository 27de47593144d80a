// Package client talks to a running vitacoach server: non-streaming chat,
// the WebSocket turn stream, and the stats endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jhartinger/vitacoach-go/internal/coach"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
)

// Client is an HTTP/WebSocket client for the vitacoach server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If endpoint is empty, VITACOACH_SERVER_URL applies,
// defaulting to localhost:8474.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("VITACOACH_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8474"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("VITACOACH_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat runs one non-streaming turn.
func (c *Client) Chat(ctx context.Context, req coach.Request) (*coach.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out coach.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Stats fetches the server's runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var snap metrics.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &snap, nil
}

// Stream is an open WebSocket turn stream. One Send is answered by a
// sequence of frames read via Next, terminated by a frame with Complete
// set.
type Stream struct {
	conn *websocket.Conn
}

// OpenStream dials the streaming turn endpoint.
func (c *Client) OpenStream(ctx context.Context) (*Stream, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/chat/stream"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &Stream{conn: conn}, nil
}

// Send submits one turn request.
func (s *Stream) Send(req coach.Request) error {
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send turn request: %w", err)
	}
	return nil
}

// Next reads the next frame.
func (s *Stream) Next() (coach.Frame, error) {
	var f coach.Frame
	if err := s.conn.ReadJSON(&f); err != nil {
		return coach.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return f, nil
}

// Close closes the stream.
func (s *Stream) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
