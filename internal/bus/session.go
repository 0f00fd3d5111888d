package bus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const writeTimeout = 10 * time.Second

// SessionState is the lifecycle position of a session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the subset of *websocket.Conn a session writes to.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Session is one authenticated live connection.
type Session struct {
	ID   string
	User string

	conn    Conn
	state   atomic.Int32
	writeMu sync.Mutex
}

// NewSession wraps conn for user. The session starts in StateConnecting.
func NewSession(user string, conn Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		User: user,
		conn: conn,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Send writes msg as a JSON text frame.
func (s *Session) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.write(ctx, payload)
}

func (s *Session) write(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.Write(ctx, websocket.MessageText, payload)
}

// Close closes the underlying connection once.
func (s *Session) Close(code websocket.StatusCode, reason string) error {
	for {
		state := s.state.Load()
		if SessionState(state) >= StateClosing {
			return nil
		}
		if s.state.CompareAndSwap(state, int32(StateClosing)) {
			break
		}
	}
	err := s.conn.Close(code, reason)
	s.setState(StateClosed)
	return err
}
