// Package bus tracks live WebSocket sessions and routes framed commands to
// registered handlers.
package bus

// CommandType is the wire tag of a request or outbound message.
type CommandType string

const (
	TypeListLinks              CommandType = "listLinks"
	TypeListItems              CommandType = "listItems"
	TypeTrackLink              CommandType = "trackLink"
	TypeForceCheckLink         CommandType = "forceCheckLink"
	TypeForceCheckLinks        CommandType = "forceCheckLinks"
	TypeSetLinkMask            CommandType = "setLinkMask"
	TypeSetLinkRunMaskPositive CommandType = "setLinkRunMaskPositive"
	TypeSetLinkRunMaskNegative CommandType = "setLinkRunMaskNegative"
	TypeDeleteLink             CommandType = "deleteLink"
	TypeGetLinkCheckStatus     CommandType = "getLinkCheckStatus"

	// Outbound only.
	TypeLinkCheckStatus CommandType = "linkCheckStatus"
	TypeReportError     CommandType = "reportError"
)

// Message is the outbound envelope for replies and broadcasts.
type Message struct {
	Type CommandType `json:"type"`
	Data any         `json:"data"`
}

// ErrorData is the payload of a reportError message.
type ErrorData struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}
