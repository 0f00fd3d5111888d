package bus

import (
	"bytes"
	"encoding/json"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/coder/websocket"
)

// Request is one decoded inbound frame.
type Request struct {
	Type CommandType
	// Args is the raw JSON header, including the type field.
	Args json.RawMessage
	// Payload is the binary trailer; nil for text frames.
	Payload []byte
}

// Bind decodes the request arguments into v.
func (r Request) Bind(v any) error {
	if err := json.Unmarshal(r.Args, v); err != nil {
		return common.NewValidationError("arguments", string(r.Type), err.Error())
	}
	return nil
}

// ParseFrame decodes a text frame (a JSON object) or a binary frame
// (a JSON header line followed by raw bytes).
func ParseFrame(kind websocket.MessageType, data []byte) (Request, error) {
	header := data
	var payload []byte

	if kind == websocket.MessageBinary {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return Request{}, &common.FrameError{Reason: "missing header separator"}
		}
		header, payload = data[:idx], data[idx+1:]
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(header, &envelope); err != nil {
		return Request{}, &common.FrameError{Reason: "invalid header", Err: err}
	}
	if envelope.Type == "" {
		return Request{}, &common.FrameError{Reason: "missing type"}
	}

	return Request{
		Type:    CommandType(envelope.Type),
		Args:    json.RawMessage(header),
		Payload: payload,
	}, nil
}
