package supervisor

import "github.com/opswarden/warden/internal/protocol"

// handleServerMessage implements spec.md §4.1.3. Grounded on
// original_source/src/supervisor.rs's handle_byond_message.
func (s *Supervisor) handleServerMessage(in ServerInbound) {
	st, ok := s.servers[in.Msg.ID]
	if !ok {
		return
	}

	switch in.Msg.Type {
	case protocol.TypeServerStarted:
		st.Phase = PhaseServing
		st.LostPings = 0
		st.Peer = in.Peer

	case protocol.TypeServerStopping:
		// TODO: the original leaves this branch empty (Serving -> Stopping
		// is the obvious intent) and spec.md §9 open question 1 preserves
		// that ambiguity rather than inventing the transition here.

	case protocol.TypePong:
		if st.Phase == PhaseServing {
			st.LostPings = 0
		}

	case protocol.TypeRunUpdate:
		s.internal <- protocol.RunUpdate{ID: in.Msg.ID, Env: in.Msg.Env}
	}
}
