package supervisor

import (
	"time"

	"github.com/opswarden/warden/internal/protocol"
)

// pingCheck is the per-tick sweep over every server. It never transitions
// a server's phase to a kill outcome inline; it only ever enqueues
// KillServer, so the transition stays centralized in handleInternal.
func (s *Supervisor) pingCheck(now time.Time) {
	for id, st := range s.servers {
		switch st.Phase {
		case PhaseStopped, PhasePreStart, PhaseUpdatePending:
			// no action

		case PhaseStarting:
			if now.After(st.T0.Add(s.cfg.StartingTimeout)) {
				s.internal <- protocol.KillServer{ID: id}
			}

		case PhaseStopping:
			if now.After(st.T0.Add(s.cfg.StoppingTimeout)) {
				s.internal <- protocol.KillServer{ID: id}
			}

		case PhaseServing:
			if st.LostPings >= s.cfg.MaxLostPings {
				s.internal <- protocol.KillServer{ID: id}
				continue
			}
			s.serverOut <- ServerOutbound{Msg: protocol.NewPing(), Peer: st.Peer}
			st.LostPings++
		}
	}
}
