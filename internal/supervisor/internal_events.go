package supervisor

import (
	"time"

	"github.com/opswarden/warden/internal/killsignal"
	"github.com/opswarden/warden/internal/protocol"
)

// handleInternal implements the transition table in spec.md §4.1.2,
// grounded on original_source/src/supervisor.rs's handle_internal_message
// match expression. Every branch is a literal transcription of one row;
// events for an unknown id are silently dropped, matching "Unknown ids in
// any event are silently dropped."
func (s *Supervisor) handleInternal(evt protocol.InternalEvent) {
	switch e := evt.(type) {

	case protocol.StartServer:
		st, ok := s.servers[e.ID]
		if !ok {
			return
		}
		switch {
		case st.Phase == PhaseStopped && st.Update == UpdateUpdating:
			st.Phase = PhaseUpdatePending
		case st.Phase == PhaseStopped && st.Update != UpdateUpdating:
			desc := s.cfg.Servers[e.ID]
			go s.spawnChild(desc, s.cfg.ServerEndpoint, s.internal, s.logger)
			st.Phase = PhasePreStart
		}
		// other phases: ignored

	case protocol.ServerStarted:
		st, ok := s.servers[e.ID]
		if !ok || st.Phase != PhasePreStart {
			e.Killer.Send(killsignal.Detach)
			return
		}
		st.Killer = e.Killer
		st.T0 = time.Now()
		st.Phase = PhaseStarting

	case protocol.ServerStopped:
		st, ok := s.servers[e.ID]
		if !ok {
			return
		}
		if st.Killer != nil {
			st.Killer.Send(killsignal.Detach)
			st.Killer = nil
		}
		st.Phase = PhaseStopped

	case protocol.KillServer:
		st, ok := s.servers[e.ID]
		if !ok {
			return
		}
		switch st.Phase {
		case PhaseStarting, PhaseStopping, PhaseServing:
			if st.Killer != nil {
				st.Killer.Send(killsignal.KillChild)
			}
		}
		// transition happens later, on the resulting ServerStopped

	case protocol.RunUpdate:
		st, ok := s.servers[e.ID]
		if !ok || st.Update != UpdateIdle {
			return
		}
		desc := s.cfg.Servers[e.ID]
		go s.runUpdate(e.ID, desc.WorkDir, desc.UpdateCommands, e.Env, s.internal, s.logger)
		st.Update = UpdatePreUpdate

	case protocol.UpdateStarted:
		st, ok := s.servers[e.ID]
		if !ok || st.Update != UpdatePreUpdate {
			return
		}
		if st.Phase == PhaseServing {
			s.serverOut <- ServerOutbound{Msg: protocol.NewUpdateStarted(), Peer: st.Peer}
		}
		st.Update = UpdateUpdating

	case protocol.UpdateError:
		st, ok := s.servers[e.ID]
		if !ok {
			return
		}
		if st.Phase == PhaseServing {
			s.serverOut <- ServerOutbound{Msg: protocol.NewUpdateError(e.Msg), Peer: st.Peer}
		}
		st.Update = UpdateIdle

	case protocol.UpdateComplete:
		st, ok := s.servers[e.ID]
		if !ok || st.Update != UpdateUpdating {
			return
		}
		switch st.Phase {
		case PhaseUpdatePending:
			s.internal <- protocol.StartServer{ID: e.ID}
			st.Phase = PhaseStopped
		case PhaseServing:
			s.serverOut <- ServerOutbound{Msg: protocol.NewUpdateComplete(), Peer: st.Peer}
		}
		st.Update = UpdateIdle
	}
}
