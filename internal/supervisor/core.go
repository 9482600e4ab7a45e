package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/opswarden/warden/internal/childproc"
	"github.com/opswarden/warden/internal/protocol"
	"github.com/opswarden/warden/internal/updater"
	"github.com/opswarden/warden/internal/wardcfg"
)

// ChildSpawner launches one server's child process. Swappable in tests so
// the actor's transition logic can be exercised without touching os/exec.
type ChildSpawner func(desc *wardcfg.ServerDescription, serverEndpoint string, internal chan<- protocol.InternalEvent, logger *slog.Logger)

// UpdateRunner runs one server's update command sequence. Swappable for the
// same reason as ChildSpawner.
type UpdateRunner func(id, workDir string, cmds []string, env map[string]string, internal chan<- protocol.InternalEvent, logger *slog.Logger)

// Supervisor is the single actor that owns every PerServerState: it is the
// only goroutine that ever mutates one, so no PerServerState field needs
// its own lock.
type Supervisor struct {
	cfg     *wardcfg.Config
	servers map[string]*PerServerState
	logger  *slog.Logger

	tick        <-chan time.Time
	internal    chan protocol.InternalEvent
	serverIn    <-chan ServerInbound
	operatorIn  <-chan OperatorInbound
	serverOut   chan<- ServerOutbound
	operatorOut chan<- OperatorOutbound

	spawnChild ChildSpawner
	runUpdate  UpdateRunner

	// onSnapshot, if set, is called with a fresh SnapshotAll after every
	// processed event. It exists solely so internal/statusapi can publish a
	// read-only copy of state to a mutex-guarded cache for its HTTP handler
	// to read. The status surface stays out of the select loop below on
	// purpose — it must never become a fifth source competing for events.
	onSnapshot func(map[string]Snapshot)
}

// SetSnapshotPublisher installs a callback invoked with a full state
// snapshot after every event Run processes. Call before Run.
func (s *Supervisor) SetSnapshotPublisher(fn func(map[string]Snapshot)) {
	s.onSnapshot = fn
}

// New constructs a Supervisor with one PerServerState per configured
// server, each seeded Stopped/Idle, and enqueues an initial StartServer
// for each onto the internal channel before returning, so Run need only
// drain it.
func New(
	cfg *wardcfg.Config,
	tick <-chan time.Time,
	serverIn <-chan ServerInbound,
	operatorIn <-chan OperatorInbound,
	serverOut chan<- ServerOutbound,
	operatorOut chan<- OperatorOutbound,
	logger *slog.Logger,
) *Supervisor {
	servers := make(map[string]*PerServerState, len(cfg.Servers))
	for id := range cfg.Servers {
		servers[id] = newPerServerState()
	}

	s := &Supervisor{
		cfg:         cfg,
		servers:     servers,
		logger:      logger,
		tick:        tick,
		internal:    make(chan protocol.InternalEvent, len(servers)*4+16),
		serverIn:    serverIn,
		operatorIn:  operatorIn,
		serverOut:   serverOut,
		operatorOut: operatorOut,
		spawnChild:  childproc.Spawn,
		runUpdate:   updater.Run,
	}

	for id := range cfg.Servers {
		s.internal <- protocol.StartServer{ID: id}
	}

	return s
}

// Internal returns the send side of the internal channel, for wiring into
// components constructed outside the supervisor (none in production code,
// but useful for tests that want to inject events directly).
func (s *Supervisor) Internal() chan<- protocol.InternalEvent {
	return s.internal
}

// Snapshot is a read-only view of one server's state, for the status API.
type Snapshot struct {
	Phase     string
	Update    string
	LostPings int
	Peer      string
	HasKiller bool
}

// SnapshotAll returns a point-in-time copy of every server's state. This
// method assumes it runs on the actor's own goroutine, alongside Run;
// internal/statusapi never calls it directly, only through the published
// cache.
func (s *Supervisor) SnapshotAll() map[string]Snapshot {
	out := make(map[string]Snapshot, len(s.servers))
	for id, st := range s.servers {
		out[id] = Snapshot{
			Phase:     st.Phase.String(),
			Update:    st.Update.String(),
			LostPings: st.LostPings,
			Peer:      st.Peer,
			HasKiller: st.Killer != nil,
		}
	}
	return out
}

// Run is the select-fair event loop over the four event sources: the
// ping ticker, the internal event channel, and the two transport-facing
// inbound channels. It returns when ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-s.tick:
			s.pingCheck(now)

		case evt := <-s.internal:
			s.handleInternal(evt)

		case in := <-s.serverIn:
			s.handleServerMessage(in)

		case in := <-s.operatorIn:
			s.handleOperatorMessage(in)
		}

		if s.onSnapshot != nil {
			s.onSnapshot(s.SnapshotAll())
		}
	}
}
