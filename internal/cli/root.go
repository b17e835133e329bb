package cli

import (
	"github.com/spf13/cobra"
)

var (
	// cfgFile will hold the path to the config file, bound to the persistent flag
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seccam",
	Short: "SecCamCloud runs click automation and multi-camera recording",
	Long: `SecCamCloud drives a watchdog-supervised click sequence against a desktop or
Android UI and records any number of cameras to rotating video files.

Run 'seccam help <command>' for more information on a specific command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file")
}

func getConfigPath() string {
	return cfgFile
}
