package supervisor

import "github.com/opswarden/warden/internal/protocol"

// ServerInbound is a decoded server-facing message together with the
// opaque peer identity the liaison's inbound loop read it from.
type ServerInbound struct {
	Msg  *protocol.ServerMessage
	Peer string
}

// ServerOutbound pairs an outbound server-facing message with the peer
// identity it must be routed to.
type ServerOutbound struct {
	Msg  *protocol.ServerMessage
	Peer string
}

// OperatorInbound mirrors ServerInbound for the operator-facing channel.
type OperatorInbound struct {
	Msg  *protocol.OperatorMessage
	Peer string
}

// OperatorOutbound mirrors ServerOutbound for the operator-facing channel.
type OperatorOutbound struct {
	Msg  *protocol.OperatorMessage
	Peer string
}
