package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	writes  [][]byte
	closed  bool
	code    websocket.StatusCode
	reason  string
	onClose func()
}

// Write mirrors coder/websocket: a done context closes the connection.
func (c *fakeConn) Write(ctx context.Context, _ websocket.MessageType, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	if err := ctx.Err(); err != nil {
		c.closed = true
		return err
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return nil
}

func (c *fakeConn) Close(code websocket.StatusCode, reason string) error {
	if c.onClose != nil {
		c.onClose()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.code = code
	c.reason = reason
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messages(t *testing.T) []wireMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]wireMessage, 0, len(c.writes))
	for _, w := range c.writes {
		var msg wireMessage
		require.NoError(t, json.Unmarshal(w, &msg))
		out = append(out, msg)
	}
	return out
}

type wireMessage struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newOpenSession(r *Registry, user string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	s := NewSession(user, conn)
	r.Register(s)
	return s, conn
}
