package bus

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// HandlerFunc handles one request. A non-nil result is sent back to the
// originating session as {type, data}.
type HandlerFunc func(ctx context.Context, s *Session, req Request) (any, error)

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Dispatcher routes requests to handlers by exact type match.
type Dispatcher struct {
	handlers map[CommandType]HandlerFunc
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher with no handlers
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[CommandType]HandlerFunc),
		logger:   logger.With().Str("component", "Dispatcher").Logger(),
	}
}

// Handle registers h for t, replacing any previous handler.
func (d *Dispatcher) Handle(t CommandType, h HandlerFunc) {
	d.handlers[t] = h
}

// Dispatch runs the handler for req. Panics are returned as *PanicError.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, req Request) (result any, err error) {
	handler, ok := d.handlers[req.Type]
	if !ok {
		return nil, &common.UnknownHandlerError{Type: string(req.Type)}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return handler(ctx, s, req)
}

// Serve parses one raw frame, dispatches it and writes the reply or a
// reportError message to s.
func (d *Dispatcher) Serve(ctx context.Context, s *Session, kind websocket.MessageType, data []byte) {
	req, err := ParseFrame(kind, data)
	var result any
	if err == nil {
		result, err = d.Dispatch(ctx, s, req)
	}

	if err != nil {
		d.reportError(ctx, s, req.Type, err)
		return
	}
	if result == nil {
		return
	}
	if err := s.Send(ctx, Message{Type: req.Type, Data: result}); err != nil {
		d.logger.Warn().Err(err).Str("session_id", s.ID).Str("type", string(req.Type)).Msg("Failed to send reply")
	}
}

func (d *Dispatcher) reportError(ctx context.Context, s *Session, t CommandType, err error) {
	data := ErrorData{Message: err.Error()}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		data.Stack = panicErr.Stack
		d.logger.Error().Str("type", string(t)).Str("session_id", s.ID).Interface("panic", panicErr.Value).Msg("Handler panicked")
	} else {
		d.logger.Warn().Err(err).Str("type", string(t)).Str("session_id", s.ID).Msg("Command failed")
	}

	if sendErr := s.Send(ctx, Message{Type: TypeReportError, Data: data}); sendErr != nil {
		d.logger.Debug().Err(sendErr).Str("session_id", s.ID).Msg("Failed to send error report")
	}
}
