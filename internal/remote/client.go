package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"concord/internal/logging"
	"concord/internal/tools"
)

// Client drives a tool server connection from the orchestration side. It
// satisfies the loop's invoker contract; concurrent Invoke calls share the
// connection and are demultiplexed by frame ID.
type Client struct {
	ws     *websocket.Conn
	logger logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Frame
	closed  bool
	readErr error
}

// Dial connects and authenticates against a tool server. The URL uses the
// ws or wss scheme and points at the server's /ws endpoint.
func Dial(ctx context.Context, url, token string, logger logging.Logger) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial tool server: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial tool server: %w", err)
	}

	c := &Client{
		ws:      ws,
		logger:  logging.OrNop(logger),
		pending: make(map[string]chan Frame),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	for {
		var frame Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			c.fail(err)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[frame.ID]
		if ok {
			delete(c.pending, frame.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Warn("dropping frame for unknown call id %q", frame.ID)
			continue
		}
		ch <- frame
	}
}

// fail marks the connection dead and unblocks every waiter.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.readErr = err
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Invoke sends one call and waits for its correlated result. Transport
// failures and context expiry come back as structured results, matching
// the in-process invoker contract.
func (c *Client) Invoke(ctx context.Context, call tools.ToolCall) *tools.ToolResult {
	if call.ID == "" {
		call.ID = "call_" + uuid.NewString()
	}

	ch := make(chan Frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return tools.Failure(call.ID, tools.KindExecutionFailed, "tool server connection closed: %v", c.readErr)
	}
	c.pending[call.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.ws.WriteJSON(callFrame(call))
	c.writeMu.Unlock()
	if err != nil {
		c.abandon(call.ID)
		return tools.Failure(call.ID, tools.KindExecutionFailed, "send tool call: %v", err)
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return tools.Failure(call.ID, tools.KindExecutionFailed, "tool server connection closed: %v", c.readErr)
		}
		return frame.toResult()
	case <-ctx.Done():
		c.abandon(call.ID)
		if ctx.Err() == context.DeadlineExceeded {
			return tools.Failure(call.ID, tools.KindToolTimeout, "tool call %s timed out", call.Name)
		}
		return tools.Failure(call.ID, tools.KindExecutionFailed, "tool call cancelled: %v", ctx.Err())
	}
}

func (c *Client) abandon(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close tears down the connection. In-flight Invoke calls fail.
func (c *Client) Close() error {
	deadline := time.Now().Add(time.Second)
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()
	return c.ws.Close()
}
