package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SecCamCloud/seccamcloud/internal/config"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

var pointName string

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Inspect or edit the automation click points",
}

var pointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the six click points the automation uses",
	Run: func(cmd *cobra.Command, args []string) {
		listPoints(os.Stdout, config.LoadPoints(mustPointsFile()))
	},
}

var pointsSetCmd = &cobra.Command{
	Use:   "set <index> <x> <y>",
	Short: "Set one click point (index 1-6)",
	Long: `Updates one click point and saves the layout. The running daemon picks the
change up on its next start.
Example: seccam points set 2 1775 596 --name "Step 2 (date field)"`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustPointsFile()
		points, err := setPoint(config.LoadPoints(path), args, pointName)
		if err == nil {
			err = config.SavePoints(path, points)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		listPoints(os.Stdout, points)
	},
}

var pointsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default click points",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.SavePoints(mustPointsFile(), models.DefaultPoints()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Click points reset to defaults.")
	},
}

func mustPointsFile() string {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
		os.Exit(1)
	}
	return cfg.Automation.PointsFile
}

func listPoints(w io.Writer, points []models.ClickPoint) {
	fmt.Fprintln(w, "--- Click Points ---")
	for i, p := range points {
		fmt.Fprintf(w, "[%d] %s\n", i+1, p)
	}
}

// setPoint applies "index x y" to a copy of points. A non-empty name renames the point.
func setPoint(points []models.ClickPoint, args []string, name string) ([]models.ClickPoint, error) {
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(points) {
		return nil, fmt.Errorf("index must be between 1 and %d, got '%s'", len(points), args[0])
	}
	x, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate '%s': %w", args[1], err)
	}
	y, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid y coordinate '%s': %w", args[2], err)
	}

	out := append([]models.ClickPoint(nil), points...)
	out[idx-1].X = int32(x)
	out[idx-1].Y = int32(y)
	if name != "" {
		out[idx-1].Name = name
	}
	return out, nil
}

func init() {
	pointsSetCmd.Flags().StringVar(&pointName, "name", "", "New name for the point")
	pointsCmd.AddCommand(pointsListCmd, pointsSetCmd, pointsResetCmd)
	rootCmd.AddCommand(pointsCmd)
}
