package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SecCamCloud/seccamcloud/internal/config"
	"github.com/SecCamCloud/seccamcloud/internal/video"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

var listCamerasCmd = &cobra.Command{
	Use:   "list-cameras",
	Short: "List configured cameras and check recording support",
	Long: `Displays every configured camera, whether its source is usable, the ffmpeg
encoders available for each container format and the free space in the output directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath := getConfigPath()
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
			os.Exit(1)
		}
		listCameras(os.Stdout, cfg, video.NewFFmpegBackend(cfg.Video.FFmpegPath))
	},
}

// encoderProbe is the slice of the ffmpeg backend list-cameras reports on.
type encoderProbe interface {
	Available() error
	Encoders(ctx context.Context) (map[string]bool, error)
}

func listCameras(w io.Writer, cfg *models.Config, probe encoderProbe) {
	fmt.Fprintln(w, "--- Configured Cameras ---")
	if len(cfg.Cameras) == 0 {
		fmt.Fprintln(w, "No cameras configured.")
	}
	for i, c := range cfg.Cameras {
		info, err := video.CameraFromConfig(c)
		if err != nil {
			fmt.Fprintf(w, "[%d] %s: %v\n", i, c.Name, err)
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", i, info.Name)
		fmt.Fprintf(w, "    Source: %s (%s)\n", info.Source.Descriptor(), info.Source.Type())
		fmt.Fprintf(w, "    Requested: %dx%d @ %g fps\n", info.Width, info.Height, info.FPS)
		if err := info.Source.Validate(); err != nil {
			fmt.Fprintf(w, "    Invalid: %v\n", err)
		}
	}

	fmt.Fprintln(w, "\n--- Recording Support ---")
	if !video.Supported() {
		fmt.Fprintln(w, "Video support is not compiled into this build.")
		return
	}
	if err := probe.Available(); err != nil {
		fmt.Fprintf(w, "ffmpeg: not available (%v)\n", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		encoders, err := probe.Encoders(ctx)
		if err != nil {
			fmt.Fprintf(w, "ffmpeg: encoder probe failed (%v)\n", err)
		} else {
			for _, f := range []video.Format{video.FormatMP4, video.FormatAVI, video.FormatMKV} {
				status := "missing"
				if encoders[f.Encoder()] {
					status = "ok"
				}
				fmt.Fprintf(w, "%s (%s via %s): %s\n", f, f.FourCC(), f.Encoder(), status)
			}
		}
	}

	videoCfg, err := video.ConfigFromSettings(cfg.Video)
	if err != nil {
		fmt.Fprintf(w, "Video settings: %v\n", err)
		return
	}
	free, err := video.FreeSpaceMB(videoCfg.OutputDir)
	if err != nil {
		fmt.Fprintf(w, "Output dir %s: free space unknown (%v)\n", videoCfg.OutputDir, err)
		return
	}
	fmt.Fprintf(w, "Output dir %s: %d MB free\n", videoCfg.OutputDir, free)
}

func init() {
	rootCmd.AddCommand(listCamerasCmd)
}
