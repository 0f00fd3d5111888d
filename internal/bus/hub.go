package bus

import (
	"context"
	"net/http"

	"github.com/aleister1102/pagewatch/internal/auth"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

const (
	maxMessageSize = 32 << 20
	inboundBuffer  = 16
)

type frame struct {
	kind websocket.MessageType
	data []byte
}

// Hub upgrades HTTP requests to command-bus sessions.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	accept     *websocket.AcceptOptions
	logger     zerolog.Logger
}

// NewHub creates a hub. originPatterns are passed to the WebSocket
// handshake; empty allows same-origin requests only.
func NewHub(registry *Registry, dispatcher *Dispatcher, originPatterns []string, logger zerolog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		dispatcher: dispatcher,
		accept:     &websocket.AcceptOptions{OriginPatterns: originPatterns},
		logger:     logger.With().Str("component", "Hub").Logger(),
	}
}

// ServeHTTP runs one session until the peer disconnects. Frames of a
// session are handled in arrival order; a disconnect cancels the handler
// in flight.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		user = auth.Anonymous
	}

	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket handshake failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	session := NewSession(user, conn)
	h.registry.Register(session)
	defer func() {
		h.registry.Unregister(session)
		_ = session.Close(websocket.StatusNormalClosure, "")
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan frame, inboundBuffer)
	go func() {
		defer close(frames)
		for {
			kind, data, err := conn.Read(ctx)
			if err != nil {
				h.logger.Debug().Err(err).Str("session_id", session.ID).Msg("Read loop finished")
				cancel()
				return
			}
			select {
			case frames <- frame{kind: kind, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for f := range frames {
		if ctx.Err() != nil {
			continue
		}
		h.dispatcher.Serve(ctx, session, f.kind, f.data)
	}
}
