//go:build !windows

package childproc

import (
	"log/slog"
	"os/exec"
	"syscall"

	"github.com/opswarden/warden/internal/killsignal"
)

// setProcessGroup puts the child in its own process group so a kill reaches
// every process it spawned, not just the immediate child. Grounded on
// original_source/src/byond.rs's use of setpgid before exec.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// newKillWatcher starts the one-shot goroutine that owns killing pid. It
// receives exactly one signal — KillChild or Detach — then exits. No
// background goroutine outlives that single receive.
func newKillWatcher(pid int, logger *slog.Logger) killsignal.Sender {
	ch := make(chan killsignal.Signal, 1)
	go func() {
		switch <-ch {
		case killsignal.KillChild:
			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
				logger.Warn("kill watcher: signal delivery failed", "pid", pid, "error", err)
			}
		case killsignal.Detach:
		}
	}()
	return ch
}
