package cli

import (
	"github.com/spf13/cobra"
)

// runOptions are command-line overrides for a daemon run.
type runOptions struct {
	dryRun       bool
	noAutomation bool
	noRecording  bool
}

var startOpts runOptions

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"run"},
	Short:   "Start the SecCamCloud daemon",
	Long: `Starts SecCamCloud in the foreground: the automation engine, every configured
camera, the monitor server and the recording notifier. Stop it with Ctrl-C or 'seccam stop'.`,
	Run: func(cmd *cobra.Command, args []string) {
		runForeground(getConfigPath(), startOpts)
	},
}

// addRunFlags registers the run overrides on a command that ends in runForeground.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&startOpts.dryRun, "dry-run", false, "Log automation actions without injecting input")
	cmd.Flags().BoolVar(&startOpts.noAutomation, "no-automation", false, "Do not run the automation engine")
	cmd.Flags().BoolVar(&startOpts.noRecording, "no-recording", false, "Do not start camera recording")
}

func init() {
	addRunFlags(startCmd)
	rootCmd.AddCommand(startCmd)
}
