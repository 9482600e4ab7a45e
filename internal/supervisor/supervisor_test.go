package supervisor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opswarden/warden/internal/killsignal"
	"github.com/opswarden/warden/internal/protocol"
	"github.com/opswarden/warden/internal/wardcfg"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSupervisor builds a Supervisor with one server "test" and channel
// buffers generous enough for a test to drive the actor by hand: pop the
// seeded StartServer, feed it through handleInternal/handleServerMessage
// directly, and assert SnapshotAll between steps. Driving the handlers
// directly (rather than running Run in a goroutine) keeps assertions free
// of the data race SnapshotAll would otherwise have against the actor.
func newTestSupervisor(t *testing.T, updateCommands []string) (*Supervisor, chan ServerOutbound) {
	t.Helper()
	cfg := &wardcfg.Config{
		ServerEndpoint:   "ws://test/server",
		OperatorEndpoint: "ws://test/operator",
		PingInterval:     time.Second,
		MaxLostPings:     3,
		StartingTimeout:  50 * time.Millisecond,
		StoppingTimeout:  50 * time.Millisecond,
		Servers: map[string]*wardcfg.ServerDescription{
			"test": {
				ID:             "test",
				Runtime:        &wardcfg.Runtime{SystemDir: "/tmp", BinDir: "/tmp/"},
				WorkDir:        "/tmp",
				BinaryArg:      "bin",
				Port:           2001,
				UpdateCommands: updateCommands,
			},
		},
	}

	serverOut := make(chan ServerOutbound, 16)
	sp := New(cfg, nil, nil, nil, serverOut, nil, testLogger())
	// Drain the boot-time seed so steady-state tests start from a clean
	// internal channel; TestE1/TestI1 exercise the seed itself and build
	// their own Supervisor via newBootingSupervisor instead.
	<-sp.internal
	return sp, serverOut
}

func newBootingSupervisor(t *testing.T) (*Supervisor, chan ServerOutbound) {
	t.Helper()
	cfg := &wardcfg.Config{
		ServerEndpoint:   "ws://test/server",
		OperatorEndpoint: "ws://test/operator",
		PingInterval:     time.Second,
		MaxLostPings:     3,
		StartingTimeout:  50 * time.Millisecond,
		StoppingTimeout:  50 * time.Millisecond,
		Servers: map[string]*wardcfg.ServerDescription{
			"test": {
				ID:        "test",
				Runtime:   &wardcfg.Runtime{SystemDir: "/tmp", BinDir: "/tmp/"},
				WorkDir:   "/tmp",
				BinaryArg: "bin",
				Port:      2001,
			},
		},
	}
	serverOut := make(chan ServerOutbound, 16)
	sp := New(cfg, nil, nil, nil, serverOut, nil, testLogger())
	return sp, serverOut
}

// fakeKiller returns a buffered channel standing in for a kill watcher, so
// tests can observe which signal the actor sent it.
func fakeKiller() chan killsignal.Signal {
	return make(chan killsignal.Signal, 1)
}

func popInternal(t *testing.T, sp *Supervisor) protocol.InternalEvent {
	t.Helper()
	select {
	case evt := <-sp.internal:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for internal event")
		return nil
	}
}

func TestE1BootToServing(t *testing.T) {
	sp, _ := newBootingSupervisor(t)
	killer := fakeKiller()
	sp.spawnChild = func(desc *wardcfg.ServerDescription, endpoint string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
		internal <- protocol.ServerStarted{ID: desc.ID, Killer: killer}
	}

	// boot seeds StartServer
	sp.handleInternal(popInternal(t, sp))
	assert.Equal(t, PhasePreStart, sp.servers["test"].Phase)

	// spawnChild ran in a goroutine and pushed ServerStarted
	sp.handleInternal(popInternal(t, sp))
	assert.Equal(t, PhaseStarting, sp.servers["test"].Phase)
	assert.True(t, sp.servers["test"].hasKiller())
	assert.NotNil(t, sp.servers["test"].Killer)

	sp.handleServerMessage(ServerInbound{
		Msg:  &protocol.ServerMessage{Type: protocol.TypeServerStarted, ID: "test"},
		Peer: "peerA",
	})
	st := sp.servers["test"]
	assert.Equal(t, PhaseServing, st.Phase)
	assert.Equal(t, 0, st.LostPings)
	assert.Equal(t, "peerA", st.Peer)
}

func TestE2LostPingsEscalateToKill(t *testing.T) {
	sp, out := newTestSupervisor(t, nil)
	killer := fakeKiller()
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.Peer = "peerA"
	st.Killer = killer

	now := time.Now()
	for i := 1; i <= 3; i++ {
		sp.pingCheck(now)
		assert.Equal(t, i, sp.servers["test"].LostPings)
		select {
		case o := <-out:
			assert.Equal(t, protocol.TypePing, o.Msg.Type)
			assert.Equal(t, "peerA", o.Peer)
		default:
			t.Fatal("expected a Ping")
		}
	}

	// 4th tick: lost_pings == max_lost_pings, so a KillServer is enqueued
	// instead of another ping.
	sp.pingCheck(now)
	evt := popInternal(t, sp)
	assert.Equal(t, protocol.KillServer{ID: "test"}, evt)
	select {
	case o := <-out:
		t.Fatalf("unexpected ping after kill threshold: %#v", o)
	default:
	}
}

func TestE3PongResetsLostPings(t *testing.T) {
	sp, out := newTestSupervisor(t, nil)
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.Peer = "peerA"
	st.Killer = fakeKiller()

	now := time.Now()
	for i := 0; i < 10; i++ {
		sp.pingCheck(now)
		<-out // drain the Ping
		sp.handleServerMessage(ServerInbound{
			Msg:  &protocol.ServerMessage{Type: protocol.TypePong, ID: "test"},
			Peer: "peerA",
		})
		assert.Equal(t, 0, sp.servers["test"].LostPings)
	}
}

func TestE4UpdateFailureReportedToPeer(t *testing.T) {
	sp, out := newTestSupervisor(t, []string{"/bin/false"})
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.Peer = "peerA"
	st.Killer = fakeKiller()

	var captured []string
	sp.runUpdate = func(id, workDir string, cmds []string, env map[string]string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
		captured = cmds
		internal <- protocol.UpdateStarted{ID: id}
		internal <- protocol.UpdateError{ID: id, Msg: "update command #1 failed with exit code 1"}
	}

	sp.handleServerMessage(ServerInbound{
		Msg:  &protocol.ServerMessage{Type: protocol.TypeRunUpdate, ID: "test", Env: map[string]string{}},
		Peer: "peerA",
	})
	sp.handleInternal(popInternal(t, sp)) // RunUpdate forwarded from server message, spawns the fake updater
	assert.Equal(t, UpdatePreUpdate, sp.servers["test"].Update)

	// Popping UpdateStarted guarantees the fake updater goroutine has
	// already run past its capture of cmds.
	sp.handleInternal(popInternal(t, sp)) // UpdateStarted
	assert.Equal(t, []string{"/bin/false"}, captured)
	started := <-out
	assert.Equal(t, protocol.TypeUpdateStarted, started.Msg.Type)
	assert.Equal(t, UpdateUpdating, sp.servers["test"].Update)

	sp.handleInternal(popInternal(t, sp)) // UpdateError
	failed := <-out
	assert.Equal(t, protocol.TypeUpdateError, failed.Msg.Type)
	assert.Equal(t, "update command #1 failed with exit code 1", failed.Msg.Error)
	assert.Equal(t, UpdateIdle, sp.servers["test"].Update)
}

func TestE5StartDuringUpdateDefersThenRestarts(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	st := sp.servers["test"]
	st.Update = UpdateUpdating

	sp.handleInternal(protocol.StartServer{ID: "test"})
	assert.Equal(t, PhaseUpdatePending, sp.servers["test"].Phase)

	sp.handleInternal(protocol.UpdateComplete{ID: "test"})
	assert.Equal(t, PhaseStopped, sp.servers["test"].Phase)
	assert.Equal(t, UpdateIdle, sp.servers["test"].Update)

	// UpdateComplete must have re-enqueued StartServer.
	evt := popInternal(t, sp)
	assert.Equal(t, protocol.StartServer{ID: "test"}, evt)
}

func TestE6StartingTimeoutKillsServer(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	st := sp.servers["test"]
	st.Phase = PhaseStarting
	st.T0 = time.Now().Add(-time.Hour)
	st.Killer = fakeKiller()

	sp.pingCheck(time.Now())
	evt := popInternal(t, sp)
	assert.Equal(t, protocol.KillServer{ID: "test"}, evt)
}

func TestB1EmptyUpdateCommandsYieldsErrorNoStart(t *testing.T) {
	sp, out := newTestSupervisor(t, nil)
	sp.runUpdate = func(id, workDir string, cmds []string, env map[string]string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
		require.Empty(t, cmds)
		internal <- protocol.UpdateError{ID: id, Msg: "no update scripts defined"}
	}
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.Peer = "peerA"

	sp.handleInternal(protocol.RunUpdate{ID: "test", Env: nil})
	evt := popInternal(t, sp)
	failed, ok := evt.(protocol.UpdateError)
	require.True(t, ok)
	assert.Equal(t, "no update scripts defined", failed.Msg)

	select {
	case o := <-out:
		t.Fatalf("unexpected outbound message: %#v", o)
	default:
	}
}

func TestB2PongDuringPreStartIgnored(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	st := sp.servers["test"]
	st.Phase = PhasePreStart

	sp.handleServerMessage(ServerInbound{
		Msg:  &protocol.ServerMessage{Type: protocol.TypePong, ID: "test"},
		Peer: "peerA",
	})
	assert.Equal(t, 0, sp.servers["test"].LostPings)
	assert.Equal(t, PhasePreStart, sp.servers["test"].Phase)
}

func TestB3PongResetsEvenWhenAlreadyZero(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.LostPings = 0

	sp.handleServerMessage(ServerInbound{
		Msg:  &protocol.ServerMessage{Type: protocol.TypePong, ID: "test"},
		Peer: "peerA",
	})
	assert.Equal(t, 0, sp.servers["test"].LostPings)
}

func TestB4KillServerNoopOutsideLiveStates(t *testing.T) {
	for _, phase := range []ServerPhase{PhaseStopped, PhasePreStart, PhaseUpdatePending} {
		sp, _ := newTestSupervisor(t, nil)
		st := sp.servers["test"]
		st.Phase = phase

		sp.handleInternal(protocol.KillServer{ID: "test"})
		assert.Equal(t, phase, sp.servers["test"].Phase, "phase %s must be unaffected", phase)
	}
}

func TestI1KillerPresenceMatchesLivePhases(t *testing.T) {
	sp, _ := newBootingSupervisor(t)
	killer := fakeKiller()
	sp.spawnChild = func(desc *wardcfg.ServerDescription, endpoint string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
		internal <- protocol.ServerStarted{ID: desc.ID, Killer: killer}
	}

	st := sp.servers["test"]
	assert.False(t, st.hasKiller())
	assert.Nil(t, st.Killer)

	sp.handleInternal(popInternal(t, sp)) // boot-seeded StartServer
	sp.handleInternal(popInternal(t, sp)) // ServerStarted from the fake spawner
	assert.True(t, st.hasKiller())
	assert.NotNil(t, st.Killer)

	sp.handleInternal(protocol.ServerStopped{ID: "test"})
	assert.False(t, st.hasKiller())
	assert.Nil(t, st.Killer)
	assert.Equal(t, killsignal.Detach, <-killer)
}

func TestServerStartedOutsidePreStartDetachesKiller(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	killer := fakeKiller()
	st := sp.servers["test"]
	st.Phase = PhaseStopped

	sp.handleInternal(protocol.ServerStarted{ID: "test", Killer: killer})
	assert.Equal(t, PhaseStopped, sp.servers["test"].Phase)
	assert.Equal(t, killsignal.Detach, <-killer)
}

func TestKillServerSendsKillChildInLiveStates(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	killer := fakeKiller()
	st := sp.servers["test"]
	st.Phase = PhaseServing
	st.Killer = killer

	sp.handleInternal(protocol.KillServer{ID: "test"})
	assert.Equal(t, killsignal.KillChild, <-killer)
	// transition to Stopped only happens on the later ServerStopped
	assert.Equal(t, PhaseServing, sp.servers["test"].Phase)
}

func TestUnknownServerIDIsSilentlyDropped(t *testing.T) {
	sp, _ := newTestSupervisor(t, nil)
	assert.NotPanics(t, func() {
		sp.handleInternal(protocol.StartServer{ID: "nonexistent"})
		sp.handleInternal(protocol.ServerStopped{ID: "nonexistent"})
		sp.handleInternal(protocol.KillServer{ID: "nonexistent"})
	})
}
