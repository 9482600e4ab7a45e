// Package supervisor implements the core state machine: a single actor that
// owns every managed server's PerServerState and demultiplexes four event
// sources into state transitions. Grounded on original_source/src/supervisor.rs
// (the State/ServerState/UpdateState enums and the Supervisor::run loop) and
// on spec.md §3/§4.1's invariants and transition tables.
package supervisor

import (
	"time"

	"github.com/opswarden/warden/internal/killsignal"
)

// ServerPhase is the run-state half of a managed server's state machine.
// Go has no sum type, so the payload fields that only make sense in one
// phase (T0, LostPings, Peer) live alongside the tag on PerServerState and
// are meaningful only when Phase says so — exactly the discipline
// original_source/src/supervisor.rs's enum payloads enforce at compile time
// in Rust; here it is enforced by convention and by never reading them
// outside the matching phase.
type ServerPhase int

const (
	PhaseStopped ServerPhase = iota
	PhasePreStart
	PhaseStarting
	PhaseStopping
	PhaseServing
	PhaseUpdatePending
)

func (p ServerPhase) String() string {
	switch p {
	case PhaseStopped:
		return "Stopped"
	case PhasePreStart:
		return "PreStart"
	case PhaseStarting:
		return "Starting"
	case PhaseStopping:
		return "Stopping"
	case PhaseServing:
		return "Serving"
	case PhaseUpdatePending:
		return "UpdatePending"
	default:
		return "Unknown"
	}
}

// UpdatePhase is the update-state half, independent of ServerPhase except
// for invariant I2 (spec.md §8): UpdatePending implies PreUpdate or Updating.
type UpdatePhase int

const (
	UpdateIdle UpdatePhase = iota
	UpdatePreUpdate
	UpdateUpdating
)

func (p UpdatePhase) String() string {
	switch p {
	case UpdateIdle:
		return "Idle"
	case UpdatePreUpdate:
		return "PreUpdate"
	case UpdateUpdating:
		return "Updating"
	default:
		return "Unknown"
	}
}

// PerServerState is the mutable half of one managed server, owned
// exclusively by the supervisor actor. See spec.md §3 for the six
// invariants this type is built to uphold.
type PerServerState struct {
	Phase ServerPhase
	// T0 is the instant Phase entered Starting or Stopping; meaningless
	// otherwise.
	T0 time.Time
	// LostPings and Peer are meaningful only while Phase == PhaseServing.
	LostPings int
	Peer       string
	Update     UpdatePhase
	// Killer is present iff Phase is one of {Starting, Stopping, Serving}
	// (invariant I1). It is sent exactly one signal over its lifetime.
	Killer killsignal.Sender
}

func newPerServerState() *PerServerState {
	return &PerServerState{Phase: PhaseStopped, Update: UpdateIdle}
}

// hasKiller reports whether Phase currently requires a live Killer handle.
func (s *PerServerState) hasKiller() bool {
	switch s.Phase {
	case PhaseStarting, PhaseStopping, PhaseServing:
		return true
	default:
		return false
	}
}
