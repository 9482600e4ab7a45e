// Package protocol defines the three message taxonomies the supervisor
// speaks: internal events (in-process only), server-facing wire messages,
// and operator-facing wire messages. The three are distinct Go types so
// the compiler rejects any code that tries to cross-mix them.
package protocol

import "github.com/opswarden/warden/internal/killsignal"

// InternalEvent is the closed set of events that cross the supervisor's
// internal channel. Only the listed concrete types implement it.
type InternalEvent interface {
	internalEvent()
}

// StartServer requests that the named server be launched, or — if it is
// mid-update — deferred until the update completes.
type StartServer struct {
	ID string
}

// KillServer requests that the named server's child process be forcibly
// terminated. It is always routed through the internal channel so the
// decision to kill is made in one place.
type KillServer struct {
	ID string
}

// ServerStarted is emitted by a child runner once the child process has
// been spawned. Killer is the one-shot handle into that child's kill
// watcher; the supervisor stores it for the lifetime of the process.
type ServerStarted struct {
	ID     string
	Killer killsignal.Sender
}

// ServerStopped is emitted by a child runner once the child process has
// exited, regardless of why.
type ServerStopped struct {
	ID string
}

// RunUpdate requests that the updater run the named server's configured
// update commands with the given environment overlay.
type RunUpdate struct {
	ID  string
	Env map[string]string
}

// UpdateStarted is emitted by the updater once it has confirmed there are
// commands to run.
type UpdateStarted struct {
	ID string
}

// UpdateError is emitted by the updater when a command fails to run or
// exits non-zero, or when there are no update commands configured.
type UpdateError struct {
	ID  string
	Msg string
}

// UpdateComplete is emitted by the updater once every command has
// succeeded.
type UpdateComplete struct {
	ID string
}

func (StartServer) internalEvent()    {}
func (KillServer) internalEvent()     {}
func (ServerStarted) internalEvent()  {}
func (ServerStopped) internalEvent()  {}
func (RunUpdate) internalEvent()      {}
func (UpdateStarted) internalEvent()  {}
func (UpdateError) internalEvent()    {}
func (UpdateComplete) internalEvent() {}
