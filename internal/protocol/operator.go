package protocol

import (
	"encoding/json"
	"fmt"
)

// OperatorMessage is the tagged-union envelope for the operator-facing
// channel. The variant set is intentionally empty in this release (see
// DESIGN.md's open questions) — the type, parsing, and routing plumbing
// exist so the design can grow without touching the supervisor loop.
type OperatorMessage struct {
	Type OperatorMessageType `json:"type"`
}

// OperatorMessageType discriminates OperatorMessage's variants. There are
// currently no known values; any Type parses successfully and the
// supervisor then treats it as unknown, handling it as a controlled error
// rather than silently accepting it or panicking.
type OperatorMessageType string

// ErrUnknownOperatorMessage is the controlled error the supervisor logs
// when it receives a well-formed operator message of a variant it does not
// recognize — every variant, today, since the set is empty. It is
// deliberately not returned by ParseOperatorMessage: a syntactically valid
// message must still reach the supervisor core so the "unknown variant" is
// a logged, controlled error (spec.md §4.1.4), not a transport-layer drop
// indistinguishable from malformed JSON.
var ErrUnknownOperatorMessage = fmt.Errorf("unknown operator message variant")

// ParseOperatorMessage decodes one JSON payload into an OperatorMessage.
// Malformed JSON is a parse error the liaison drops silently, per spec.md
// §7's protocol-error policy; any well-formed JSON is returned without
// error so the supervisor's handleOperatorMessage gets the chance to log
// the unknown-variant condition in a controlled way.
func ParseOperatorMessage(data []byte) (*OperatorMessage, error) {
	var msg OperatorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse operator message: %w", err)
	}
	return &msg, nil
}

// Serialize encodes the message back to its JSON wire form.
func (m *OperatorMessage) Serialize() ([]byte, error) {
	return json.Marshal(m)
}
