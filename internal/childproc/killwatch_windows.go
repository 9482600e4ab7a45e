//go:build windows

package childproc

import (
	"log/slog"
	"os"
	"os/exec"

	"github.com/opswarden/warden/internal/killsignal"
)

// setProcessGroup is a no-op on Windows; job objects would be the analog of
// a POSIX process group but are not wired up here. TODO: use a job object
// so killing a server also reaps any grandchildren it spawns.
func setProcessGroup(cmd *exec.Cmd) {}

// newKillWatcher mirrors the POSIX watcher but kills only the direct child,
// since there is no process-group equivalent wired up on this platform.
func newKillWatcher(pid int, logger *slog.Logger) killsignal.Sender {
	ch := make(chan killsignal.Signal, 1)
	go func() {
		switch <-ch {
		case killsignal.KillChild:
			proc, err := os.FindProcess(pid)
			if err != nil {
				logger.Warn("kill watcher: process lookup failed", "pid", pid, "error", err)
				return
			}
			if err := proc.Kill(); err != nil {
				logger.Warn("kill watcher: signal delivery failed", "pid", pid, "error", err)
			}
		case killsignal.Detach:
		}
	}()
	return ch
}
