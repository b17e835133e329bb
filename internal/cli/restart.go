package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SecCamCloud/seccamcloud/internal/config"
)

const restartWait = 35 * time.Second

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the SecCamCloud daemon",
	Long: `Stops the running SecCamCloud daemon, waits for it to release its PID file,
and then starts it again in the foreground.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Restarting SecCamCloud daemon...")
		configPath := getConfigPath()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
			os.Exit(1)
		}

		fmt.Println("\n--- Stopping ---")
		pidFilePath := cfg.Application.PIDFilePath
		pid, err := signalDaemon(pidFilePath)
		switch {
		case errors.Is(err, errNotRunning):
			fmt.Println("Daemon was not running.")
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		default:
			fmt.Printf("Waiting for PID %d to exit...\n", pid)
			if !waitForExit(pidFilePath, pid, restartWait) {
				fmt.Fprintf(os.Stderr, "Error: PID %d did not exit within %s\n", pid, restartWait)
				os.Exit(1)
			}
		}

		fmt.Println("\n--- Starting ---")
		runForeground(configPath, startOpts)
	},
}

// waitForExit polls until the process is gone and its PID file removed, or timeout.
func waitForExit(pidFilePath string, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_, statErr := os.Stat(pidFilePath)
		if os.IsNotExist(statErr) || !processAlive(pid) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func init() {
	addRunFlags(restartCmd)
	rootCmd.AddCommand(restartCmd)
}
