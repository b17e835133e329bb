package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

const (
	DefaultPIDFilePath         = "seccam.pid"
	DefaultPointsFile          = "clickpoints.json"
	DefaultNotifierConcurrency = 1
	DefaultNotifierQueueSize   = 100
)

// LoadConfig reads a YAML configuration file from the given path,
// unmarshals it into a models.Config struct, applies defaults and validates it.
func LoadConfig(configPath string) (*models.Config, error) {
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var config models.Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", configPath, err)
	}

	ApplyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// ApplyDefaults fills in settings the daemon needs a concrete value for.
// Automation timing and video limits keep their nil pointers; the automation
// and video packages own those defaults.
func ApplyDefaults(cfg *models.Config) {
	if cfg.Application.PIDFilePath == "" {
		cfg.Application.PIDFilePath = DefaultPIDFilePath
	}
	if cfg.Automation.Enabled == nil {
		enabled := true
		cfg.Automation.Enabled = &enabled
	}
	if cfg.Automation.PointsFile == "" {
		cfg.Automation.PointsFile = DefaultPointsFile
	}
	if cfg.Notifier.Concurrency == 0 {
		cfg.Notifier.Concurrency = DefaultNotifierConcurrency
	}
}
