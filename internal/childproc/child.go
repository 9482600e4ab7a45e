// Package childproc runs one managed server's child process: it spawns
// the runtime binary with the prepared environment and argv, starts a
// kill watcher for it, reports ServerStarted once the process exists, then
// blocks until it exits and reports ServerStopped. It never touches
// supervisor state directly — every observation is reduced to a message on
// the internal channel, per spec.md §4.2 / §7.
package childproc

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/opswarden/warden/internal/logging"
	"github.com/opswarden/warden/internal/protocol"
	"github.com/opswarden/warden/internal/wardcfg"
)

// runtimeBinary is the name of the runtime executable inside a runtime's
// bin_dir — the proprietary engine process every managed server is an
// instance of. Grounded on original_source/src/server.rs's
// bin_dir.join("DreamDaemon").
const runtimeBinary = "gameserverd"

// Spawn launches desc's child process and blocks until it exits. Run it in
// its own goroutine; it communicates back exclusively through internal.
//
// Grounded on the teacher's ManagedServer.Start/Wait split
// (internal/daemon/server.go) for the spawn/wait/report shape, and on
// original_source/src/server.rs:61-70 for the executable and argv: the
// runtime binary is the executable, and desc.BinaryArg (the content file,
// spec.md §3) is the first argument, not the executable itself.
func Spawn(desc *wardcfg.ServerDescription, serverEndpoint string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
	logger = logging.ServerLogger(logger, desc.ID)
	cmd := exec.Command(
		filepath.Join(desc.Runtime.BinDir, runtimeBinary),
		desc.BinaryArg,
		strconv.Itoa(int(desc.Port)),
		"-trusted",
		"-core",
		"-logself",
		"-params",
		fmt.Sprintf("endpoint=%s&id=%s", serverEndpoint, desc.ID),
	)
	cmd.Dir = desc.WorkDir
	cmd.Env = append(cmd.Environ(),
		"SYSTEM_DIR="+desc.Runtime.SystemDir,
		"LIB_PATH="+desc.Runtime.BinDir,
		"LIBC_FATAL_STDERR_=1",
	)
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		logger.Error("failed to spawn server", "error", err)
		internal <- protocol.ServerStopped{ID: desc.ID}
		return
	}

	killer := newKillWatcher(cmd.Process.Pid, logger)

	internal <- protocol.ServerStarted{ID: desc.ID, Killer: killer}

	if err := cmd.Wait(); err != nil {
		logger.Info("server exited", "error", err)
	}
	internal <- protocol.ServerStopped{ID: desc.ID}
}
