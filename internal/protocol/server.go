package protocol

import (
	"encoding/json"
	"fmt"
)

// ServerMessage is a tagged-union JSON envelope for messages flowing
// between a managed server and the supervisor, in both directions. The
// Type field is the discriminator; only the fields relevant to a given
// Type are populated on the wire.
//
// Server -> supervisor variants: ServerStarted, ServerStopping, Pong, RunUpdate.
// Supervisor -> server variants: Ping, UpdateStarted, UpdateError, UpdateComplete.
type ServerMessage struct {
	Type  ServerMessageType `json:"type"`
	ID    string            `json:"id,omitempty"`
	Env   map[string]string `json:"env,omitempty"`
	Error string            `json:"error,omitempty"`
}

// ServerMessageType discriminates ServerMessage's variants.
type ServerMessageType string

const (
	TypeServerStarted  ServerMessageType = "ServerStarted"
	TypeServerStopping ServerMessageType = "ServerStopping"
	TypePong           ServerMessageType = "Pong"
	TypeRunUpdate      ServerMessageType = "RunUpdate"

	TypePing           ServerMessageType = "Ping"
	TypeUpdateStarted  ServerMessageType = "UpdateStarted"
	TypeUpdateError    ServerMessageType = "UpdateError"
	TypeUpdateComplete ServerMessageType = "UpdateComplete"
)

// ParseServerMessage decodes one JSON payload into a ServerMessage. Per
// the protocol-error policy, callers are expected to drop the message
// silently on error rather than propagate it further.
func ParseServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse server message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("parse server message: missing type")
	}
	return &msg, nil
}

// Serialize encodes the message back to its JSON wire form.
func (m *ServerMessage) Serialize() ([]byte, error) {
	return json.Marshal(m)
}

// NewPing builds the Ping variant sent to a serving peer on every tick it
// is still owed a response.
func NewPing() *ServerMessage { return &ServerMessage{Type: TypePing} }

// NewUpdateStarted builds the UpdateStarted variant.
func NewUpdateStarted() *ServerMessage { return &ServerMessage{Type: TypeUpdateStarted} }

// NewUpdateError builds the UpdateError variant carrying a human-readable message.
func NewUpdateError(msg string) *ServerMessage {
	return &ServerMessage{Type: TypeUpdateError, Error: msg}
}

// NewUpdateComplete builds the UpdateComplete variant.
func NewUpdateComplete() *ServerMessage { return &ServerMessage{Type: TypeUpdateComplete} }
