package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChatReply is one reply frame from the chat socket.
type ChatReply struct {
	Reply  string  `json:"reply"`
	Intent string  `json:"intent"`
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Error  string  `json:"error"`
}

// ChatSession is an open WebSocket conversation with the server.
type ChatSession struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// Chat dials the server's chat endpoint.
func (c *Client) Chat(ctx context.Context) (*ChatSession, error) {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/ws"

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &ChatSession{conn: conn}, nil
}

// Ask sends one prompt and waits for its reply frame. A context
// deadline bounds both the write and the read.
func (s *ChatSession) Ask(ctx context.Context, prompt string, maxTokens int) (*ChatReply, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	s.conn.SetWriteDeadline(deadline)
	s.conn.SetReadDeadline(deadline)

	req := map[string]any{"prompt": prompt}
	if maxTokens > 0 {
		req["max_tokens"] = maxTokens
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send prompt: %w", err)
	}

	var reply ChatReply
	if err := s.conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return &reply, nil
}

// Close ends the conversation politely.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	deadline := time.Now().Add(time.Second)
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
