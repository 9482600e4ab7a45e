// Package updater runs a server's configured update commands in order,
// halting at the first failure. Grounded on original_source/src/updater.rs's
// sequential Command::status() loop; the error message wording matches that
// file's formatting exactly, including its 1-based command numbering.
package updater

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/opswarden/warden/internal/logging"
	"github.com/opswarden/warden/internal/protocol"
)

// Run executes cmds in order inside workDir, overlaying env on top of the
// current process environment. Per spec.md §4.3: an empty command list is
// itself an error and never emits UpdateStarted; otherwise it reports
// UpdateStarted before the first command, UpdateError and stops at the
// first non-zero exit or spawn failure, or UpdateComplete once every
// command has succeeded.
func Run(id, workDir string, cmds []string, env map[string]string, internal chan<- protocol.InternalEvent, logger *slog.Logger) {
	logger = logging.ServerLogger(logger, id)
	if len(cmds) == 0 {
		internal <- protocol.UpdateError{ID: id, Msg: "no update scripts defined"}
		return
	}

	internal <- protocol.UpdateStarted{ID: id}

	overlay := os.Environ()
	for k, v := range env {
		overlay = append(overlay, k+"="+v)
	}

	for i, raw := range cmds {
		cmd := exec.Command(raw)
		cmd.Dir = workDir
		cmd.Env = overlay

		err := cmd.Run()
		if err == nil {
			logger.Info("update step complete", "step", i+1, "total", len(cmds), "command", raw)
			continue
		}

		var exitErr *exec.ExitError
		var msg string
		if errors.As(err, &exitErr) {
			msg = fmt.Sprintf("update command #%d failed with exit code %d", i+1, exitErr.ExitCode())
		} else {
			msg = fmt.Sprintf("failed to execute update command #%d: %v", i+1, err)
		}
		logger.Error("update step failed", "step", i+1, "command", raw, "error", err)
		internal <- protocol.UpdateError{ID: id, Msg: msg}
		return
	}

	internal <- protocol.UpdateComplete{ID: id}
}
