package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// DuplicateConnectionReason is the close reason sent to a session replaced
// by a newer connection of the same user.
const DuplicateConnectionReason = "duplicate connection"

// Registry holds the open sessions, at most one per user.
type Registry struct {
	// registerMu serializes Register so a replaced session is fully closed
	// before its successor becomes visible.
	registerMu sync.Mutex
	mu         sync.RWMutex
	sessions   []*Session
	logger     zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger.With().Str("component", "SessionRegistry").Logger(),
	}
}

// Register adds s, closing any existing session of the same user first.
func (r *Registry) Register(s *Session) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	r.mu.Lock()
	var replaced []*Session
	kept := r.sessions[:0:0]
	for _, existing := range r.sessions {
		if existing.User == s.User {
			replaced = append(replaced, existing)
			continue
		}
		kept = append(kept, existing)
	}
	r.sessions = kept
	r.mu.Unlock()

	for _, old := range replaced {
		r.logger.Info().Str("user", old.User).Str("session_id", old.ID).Msg("Closing duplicate connection")
		if err := old.Close(websocket.StatusNormalClosure, DuplicateConnectionReason); err != nil {
			r.logger.Debug().Err(err).Str("session_id", old.ID).Msg("Close of replaced session returned error")
		}
	}

	s.setState(StateOpen)
	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()

	r.logger.Info().Str("user", s.User).Str("session_id", s.ID).Msg("Session registered")
}

// Unregister removes s. Removing a session that is not registered is a no-op.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.sessions {
		if existing == s {
			r.sessions = append(r.sessions[:i:i], r.sessions[i+1:]...)
			r.logger.Info().Str("user", s.User).Str("session_id", s.ID).Msg("Session unregistered")
			return
		}
	}
}

// Sessions returns a snapshot of the registered sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Broadcast sends msg to every open session. Write failures are logged and
// do not stop delivery to the remaining sessions. Cancellation of ctx is
// ignored so a departing requester never closes other sessions.
func (r *Registry) Broadcast(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)

	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("Failed to encode broadcast")
		return
	}

	for _, s := range r.Sessions() {
		if s.State() != StateOpen {
			continue
		}
		if err := s.write(ctx, payload); err != nil {
			r.logger.Warn().Err(err).Str("session_id", s.ID).Str("type", string(msg.Type)).Msg("Broadcast write failed")
		}
	}
}
