package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/SecCamCloud/seccamcloud/internal/config"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the running daemon",
	Long:  `Queries the monitor server of the running daemon and prints automation and camera status.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := mustMonitorClient()
		snap, err := client.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printSnapshot(os.Stdout, snap)
	},
}

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Stop the automation engine in the running daemon",
	Long: `Requests a cooperative stop of the automation engine. Recording keeps running.
The engine stops within about one second, or when the current click attempt finishes.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := mustMonitorClient()
		msg, err := client.StopAutomation()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(msg)
	},
}

func mustMonitorClient() *monitorClient {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
		os.Exit(1)
	}
	client, err := newMonitorClient(cfg.Monitor.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return client
}

func printSnapshot(w io.Writer, snap models.Snapshot) {
	a := snap.Automation
	fmt.Fprintln(w, "--- Automation ---")
	fmt.Fprintf(w, "%s\n", a.Status)
	fmt.Fprintf(w, "Running: %t\n", a.Running)
	fmt.Fprintf(w, "Iterations completed: %d\n", a.Iterations)
	if a.Remaining > 0 {
		fmt.Fprintf(w, "Long wait remaining: %s\n", formatRemaining(a.Remaining))
	}
	if a.LastError != "" {
		fmt.Fprintf(w, "Last error: %s\n", a.LastError)
	}

	fmt.Fprintf(w, "\n--- Cameras (%d recording) ---\n", snap.RecordingCount)
	if len(snap.Cameras) == 0 {
		fmt.Fprintln(w, "No cameras configured.")
		return
	}
	for _, c := range snap.Cameras {
		fmt.Fprintf(w, "%s: %s", c.Name, c.State)
		if c.File != "" {
			fmt.Fprintf(w, " -> %s (%d frames)", c.File, c.Frames)
		}
		if c.Error != "" {
			fmt.Fprintf(w, " [%s]", c.Error)
		}
		fmt.Fprintln(w)
	}
}

func formatRemaining(secs int32) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(haltCmd)
}
