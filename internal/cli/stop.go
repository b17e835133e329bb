package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SecCamCloud/seccamcloud/internal/config"
)

var errNotRunning = errors.New("daemon not running")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the SecCamCloud daemon",
	Long:  `Stops the running SecCamCloud daemon process by sending a SIGTERM signal based on the configured PID file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Stopping SecCamCloud daemon...")
		configPath := getConfigPath()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration from '%s' to find PID file: %v\n", configPath, err)
			os.Exit(1)
		}

		pid, err := signalDaemon(cfg.Application.PIDFilePath)
		if errors.Is(err, errNotRunning) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(0) // Not an error in this context
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Signal sent successfully to PID %d. Check logs for shutdown status.\n", pid)
		// The PID file is removed by the running process during its graceful shutdown.
	},
}

// signalDaemon sends SIGTERM to the process recorded in pidFilePath.
func signalDaemon(pidFilePath string) (int, error) {
	if pidFilePath == "" {
		return 0, errors.New("PID file path not configured in application settings")
	}

	pid, err := readPID(pidFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: PID file not found at '%s'", errNotRunning, pidFilePath)
		}
		return 0, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("error finding process with PID %d (from %s): %w", pid, pidFilePath, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || strings.Contains(err.Error(), "process already finished") {
			_ = os.Remove(pidFilePath)
			return pid, fmt.Errorf("%w: process with PID %d already exited", errNotRunning, pid)
		}
		return pid, fmt.Errorf("error sending SIGTERM to process %d: %w", pid, err)
	}
	return pid, nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
