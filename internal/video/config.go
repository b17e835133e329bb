package video

import (
	"fmt"
	"strings"
	"time"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Recording defaults.
const (
	DefaultFPS           = 30.0
	DefaultWidth         = 1920
	DefaultHeight        = 1080
	DefaultOutputDir     = "recordings"
	DefaultMaxDuration   = time.Hour
	DefaultMaxFileSizeMB = 2048
)

// Format is an output container.
type Format int

const (
	FormatMP4 Format = iota
	FormatAVI
	FormatMKV
)

// ParseFormat accepts "mp4", "avi" or "mkv" (case-insensitive). Empty means mp4.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "mp4", "":
		return FormatMP4, nil
	case "avi":
		return FormatAVI, nil
	case "mkv":
		return FormatMKV, nil
	default:
		return FormatMP4, fmt.Errorf("unknown video format '%s'", s)
	}
}

func (f Format) String() string {
	return strings.ToUpper(f.Extension())
}

// Extension is the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatAVI:
		return "avi"
	case FormatMKV:
		return "mkv"
	default:
		return "mp4"
	}
}

// FourCC is the codec tag written for the container.
func (f Format) FourCC() string {
	switch f {
	case FormatAVI:
		return "MJPG"
	case FormatMKV:
		return "X264"
	default:
		return "mp4v"
	}
}

// Encoder is the ffmpeg encoder matching FourCC.
func (f Format) Encoder() string {
	return encoderForFourCC(f.FourCC())
}

func encoderForFourCC(fourcc string) string {
	switch fourcc {
	case "MJPG":
		return "mjpeg"
	case "X264":
		return "libx264"
	default:
		return "mpeg4"
	}
}

// VideoConfig holds the per-recorder output settings.
type VideoConfig struct {
	OutputDir     string
	Format        Format
	MaxDuration   time.Duration // 0 disables the limit
	MaxFileSizeMB uint64        // 0 disables the limit
	AutoRestart   bool          // Start a new segment when a limit is hit
}

// DefaultVideoConfig returns the factory settings: ./recordings, MP4, 1h, 2 GB, auto restart.
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		OutputDir:     DefaultOutputDir,
		Format:        FormatMP4,
		MaxDuration:   DefaultMaxDuration,
		MaxFileSizeMB: DefaultMaxFileSizeMB,
		AutoRestart:   true,
	}
}

// ConfigFromSettings overlays the video section of the daemon config on the defaults.
func ConfigFromSettings(s models.VideoSettings) (VideoConfig, error) {
	cfg := DefaultVideoConfig()
	if s.OutputDir != "" {
		cfg.OutputDir = s.OutputDir
	}
	format, err := ParseFormat(s.Format)
	if err != nil {
		return cfg, err
	}
	cfg.Format = format
	if s.MaxDuration != nil {
		if s.MaxDuration.Duration < 0 {
			return cfg, fmt.Errorf("max_duration must not be negative: %s", s.MaxDuration)
		}
		cfg.MaxDuration = s.MaxDuration.Duration
	}
	if s.MaxFileSizeMB != nil {
		cfg.MaxFileSizeMB = *s.MaxFileSizeMB
	}
	if s.AutoRestart != nil {
		cfg.AutoRestart = *s.AutoRestart
	}
	return cfg, nil
}

// CameraInfo describes one capture device and the format requested from it.
type CameraInfo struct {
	Name   string
	Source CameraSource
	Width  int32
	Height int32
	FPS    float64
}

// NewCameraInfo returns info with the default 1920x1080 @ 30 fps request.
func NewCameraInfo(name string, src CameraSource) CameraInfo {
	return CameraInfo{Name: name, Source: src, Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS}
}

// CameraFromConfig converts one cameras entry. Zero dimensions or rate keep the defaults.
func CameraFromConfig(c models.CameraConfig) (CameraInfo, error) {
	src, err := ParseSource(c.Type, c.Index, c.URL, c.Path)
	if err != nil {
		return CameraInfo{}, fmt.Errorf("camera '%s': %w", c.Name, err)
	}
	info := NewCameraInfo(c.Name, src)
	if c.Width > 0 {
		info.Width = c.Width
	}
	if c.Height > 0 {
		info.Height = c.Height
	}
	if c.FPS > 0 {
		info.FPS = c.FPS
	}
	return info, nil
}

// GenerateFilename builds "{name}_{YYYYMMDD_HHMMSS}.{ext}" with spaces and slashes
// in the camera name replaced by underscores.
func GenerateFilename(cameraName string, format Format, now time.Time) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(cameraName)
	return fmt.Sprintf("%s_%s.%s", safe, now.Format("20060102_150405"), format.Extension())
}
