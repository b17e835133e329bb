package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/SecCamCloud/seccamcloud/internal/video"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// ValidateConfig checks the entire configuration for logical consistency and required fields.
// Camera sources are only checked for a known type here; a camera with an unusable
// URL or path fails on its own when recording starts.
func ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateApplicationSettings(&cfg.Application); err != nil {
		return fmt.Errorf("invalid application settings: %w", err)
	}
	if err := validateAutomationSettings(&cfg.Automation); err != nil {
		return fmt.Errorf("invalid automation settings: %w", err)
	}
	if err := validateVideoSettings(&cfg.Video); err != nil {
		return fmt.Errorf("invalid video settings: %w", err)
	}

	names := make(map[string]bool)
	for i, cam := range cfg.Cameras {
		if err := validateCameraConfig(&cam, i); err != nil {
			return fmt.Errorf("invalid camera config at index %d (name: %s): %w", i, cam.Name, err)
		}
		if names[cam.Name] {
			return fmt.Errorf("duplicate camera name found: %s", cam.Name)
		}
		names[cam.Name] = true
	}

	if err := validateMonitorSettings(&cfg.Monitor); err != nil {
		return fmt.Errorf("invalid monitor settings: %w", err)
	}
	if err := validateNotifierSettings(&cfg.Notifier); err != nil {
		return fmt.Errorf("invalid notifier settings: %w", err)
	}
	return nil
}

func validateApplicationSettings(app *models.ApplicationSettings) error {
	if app.LogLevel != "" {
		level := strings.ToLower(app.LogLevel)
		if level != "debug" && level != "info" && level != "warn" && level != "error" {
			return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", app.LogLevel)
		}
	}
	if app.LogFormat != "" {
		format := strings.ToLower(app.LogFormat)
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid log_format: %s (must be text or json)", app.LogFormat)
		}
	}
	return nil
}

func validateAutomationSettings(a *models.AutomationSettings) error {
	for _, f := range []struct {
		name  string
		value *int
	}{
		{"total_wait_seconds", a.TotalWaitSeconds},
		{"step_delay_seconds", a.StepDelaySeconds},
		{"step4_wait_seconds", a.Step4WaitSeconds},
	} {
		if f.value != nil && *f.value < 0 {
			return fmt.Errorf("%s cannot be negative", f.name)
		}
	}
	if a.MaxRetries != nil && *a.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	switch strings.ToLower(a.Injector.Type) {
	case "", "xdotool", "adb":
	default:
		return fmt.Errorf("invalid injector type: %s (must be xdotool or adb)", a.Injector.Type)
	}
	return nil
}

func validateVideoSettings(v *models.VideoSettings) error {
	if _, err := video.ParseFormat(v.Format); err != nil {
		return err
	}
	if v.MaxDuration != nil && v.MaxDuration.Duration < 0 {
		return fmt.Errorf("max_duration cannot be negative")
	}
	return nil
}

func validateCameraConfig(cam *models.CameraConfig, index int) error {
	if cam.Name == "" {
		return fmt.Errorf("camera at index %d must have a name", index)
	}
	if _, err := video.ParseSource(cam.Type, cam.Index, cam.URL, cam.Path); err != nil {
		return err
	}
	if cam.Width < 0 || cam.Height < 0 {
		return fmt.Errorf("width and height cannot be negative")
	}
	if cam.FPS < 0 {
		return fmt.Errorf("fps cannot be negative")
	}
	return nil
}

func validateMonitorSettings(m *models.MonitorSettings) error {
	if m.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Addr); err != nil {
		return fmt.Errorf("invalid addr '%s': %w", m.Addr, err)
	}
	return nil
}

func validateNotifierSettings(n *models.NotifierSettings) error {
	if n.URL != "" {
		u, err := url.Parse(n.URL)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("url must be an absolute http(s) URL: %s", n.URL)
		}
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if n.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative: %d", n.Concurrency)
	}
	return nil
}
