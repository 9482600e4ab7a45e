package supervisor

import "github.com/opswarden/warden/internal/protocol"

// handleOperatorMessage implements spec.md §4.1.4. The operator-facing
// message set is empty in this release; the channel is still selected upon
// so the loop's shape does not need to change when it grows, and every
// inbound message is logged as the controlled ErrUnknownOperatorMessage
// condition rather than silently ignored or allowed to panic the actor.
func (s *Supervisor) handleOperatorMessage(in OperatorInbound) {
	s.logger.Warn("unhandled operator message",
		"type", in.Msg.Type, "peer", in.Peer, "reason", protocol.ErrUnknownOperatorMessage)
}
