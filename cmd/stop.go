package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opswarden/warden/internal/wardcfg"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running supervisor",
	RunE: func(cmd *cobra.Command, args []string) error {
		pidPath, err := wardcfg.PIDFilePath()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(pidPath)
		if err != nil {
			return fmt.Errorf("supervisor not running (no PID file)")
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("invalid PID file: %w", err)
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process: %w", err)
		}

		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("send SIGTERM: %w (supervisor may not be running)", err)
		}

		fmt.Println("Sent shutdown signal to supervisor")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
