package models

import "time"

// Config is the root configuration structure for the SecCamCloud daemon.
type Config struct {
	Application ApplicationSettings `yaml:"application"`
	Automation  AutomationSettings  `yaml:"automation"`
	Video       VideoSettings       `yaml:"video"`
	Cameras     []CameraConfig      `yaml:"cameras"`
	Monitor     MonitorSettings     `yaml:"monitor"`
	Notifier    NotifierSettings    `yaml:"notifier"`
}

// ApplicationSettings holds global configuration settings for the application.
type ApplicationSettings struct {
	LogLevel    string `yaml:"log_level"`     // e.g., "debug", "info", "warn", "error"
	LogFormat   string `yaml:"log_format"`    // e.g., "text", "json"
	LogFile     string `yaml:"log_file"`      // Optional file that receives a copy of every log line
	PIDFilePath string `yaml:"pid_file_path"` // Path to store the process ID
}

// AutomationSettings configures the click sequence run by the automation engine.
// Numeric fields are seconds. Pointers distinguish "unset" from an explicit zero so
// defaults can be applied after loading.
type AutomationSettings struct {
	Enabled          *bool            `yaml:"enabled"`
	TotalWaitSeconds *int             `yaml:"total_wait_seconds"` // Long countdown between the 4th and 5th click
	StepDelaySeconds *int             `yaml:"step_delay_seconds"` // Pause after every successful click
	MaxRetries       *int             `yaml:"max_retries"`        // Attempts per click before the run fails
	Step4WaitSeconds *int             `yaml:"step4_wait_seconds"` // Short wait after the 3rd click
	DryRun           bool             `yaml:"dry_run"`            // Log actions without injecting input
	PointsFile       string           `yaml:"points_file"`        // JSON file holding the six click points
	Injector         InjectorSettings `yaml:"injector"`
}

// InjectorSettings selects the input injection backend.
type InjectorSettings struct {
	Type   string `yaml:"type"`   // "xdotool" (desktop) or "adb" (Android device)
	Path   string `yaml:"path"`   // Optional binary path override
	Device string `yaml:"device"` // ADB device serial, ignored by xdotool
}

// VideoSettings holds the recording defaults shared by every camera.
type VideoSettings struct {
	OutputDir     string    `yaml:"output_dir"`
	Format        string    `yaml:"format"`           // "mp4", "avi" or "mkv"
	MaxDuration   *Duration `yaml:"max_duration"`     // e.g. "1h"; "0s" disables the limit
	MaxFileSizeMB *uint64   `yaml:"max_file_size_mb"` // 0 disables the limit
	AutoRestart   *bool     `yaml:"auto_restart"`     // Start a new segment when a limit is hit
	FFmpegPath    string    `yaml:"ffmpeg_path"`
}

// CameraConfig describes a single capture source.
type CameraConfig struct {
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"`  // "webcam", "rtsp", "http" or "file"
	Index  int32   `yaml:"index"` // Webcam index
	URL    string  `yaml:"url"`   // RTSP/HTTP stream URL
	Path   string  `yaml:"path"`  // Video file path
	Width  int32   `yaml:"width"`
	Height int32   `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

// MonitorSettings configures the status/websocket HTTP server.
type MonitorSettings struct {
	Addr string `yaml:"addr"` // Empty disables the server
}

// NotifierSettings configures delivery of finished-recording notices.
type NotifierSettings struct {
	URL              string `yaml:"url"` // Empty disables the notifier
	MaxRetries       int    `yaml:"max_retries"`
	Concurrency      int    `yaml:"concurrency"`
	QueuePersistPath string `yaml:"queue_persist_path"` // Path to save pending notices
}

// Duration is a wrapper around time.Duration to allow parsing from YAML strings
// like "10s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	var err error
	d.Duration, err = time.ParseDuration(s)
	return err
}

// MarshalYAML writes the duration back in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}
