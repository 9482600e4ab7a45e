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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show supervisor status",
	RunE: func(cmd *cobra.Command, args []string) error {
		pidPath, err := wardcfg.PIDFilePath()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(pidPath)
		if err != nil {
			fmt.Println("Supervisor: not running")
			return nil
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			fmt.Println("Supervisor: not running (invalid PID file)")
			return nil
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			fmt.Printf("Supervisor: not running (PID %d not found)\n", pid)
			return nil
		}

		if err := process.Signal(syscall.Signal(0)); err != nil {
			fmt.Printf("Supervisor: not running (PID %d, stale PID file)\n", pid)
			return nil
		}

		fmt.Printf("Supervisor: running (PID %d)\n", pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
