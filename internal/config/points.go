package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// pointsBackup is the YAML layout of the click point backup file.
type pointsBackup struct {
	Points []models.ClickPoint `yaml:"points"`
}

// BackupPath returns the YAML backup written next to a click points file.
func BackupPath(jsonPath string) string {
	return jsonPath + ".bak.yaml"
}

// LoadPoints reads the click points from jsonPath, then from its YAML backup, and
// finally falls back to the factory layout. It never fails; problems are logged.
func LoadPoints(jsonPath string) []models.ClickPoint {
	l := logger.L().With("path", jsonPath)

	points, err := readJSONPoints(jsonPath)
	if err == nil {
		l.Info("Loaded click points", "count", len(points))
		return points
	}
	if !os.IsNotExist(err) {
		l.Warn("Failed to parse click points file", "error", err)
	}

	backup := BackupPath(jsonPath)
	points, err = readBackupPoints(backup)
	if err == nil {
		l.Info("Loaded click points from backup", "backup", backup, "count", len(points))
		return points
	}
	if !os.IsNotExist(err) {
		l.Warn("Failed to load click points backup", "backup", backup, "error", err)
	}

	l.Info("Using default click points")
	return models.DefaultPoints()
}

// SavePoints writes points to jsonPath and a YAML backup next to it. Only a
// failure of the primary file is returned.
func SavePoints(jsonPath string, points []models.ClickPoint) error {
	if err := checkPointCount(points); err != nil {
		return err
	}

	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize click points: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write click points file '%s': %w", jsonPath, err)
	}
	logger.L().Info("Saved click points", "path", jsonPath, "count", len(points))

	backup := BackupPath(jsonPath)
	out, err := yaml.Marshal(pointsBackup{Points: points})
	if err == nil {
		err = os.WriteFile(backup, out, 0644)
	}
	if err != nil {
		logger.L().Warn("Failed to save click points backup", "backup", backup, "error", err)
	} else {
		logger.L().Debug("Saved click points backup", "backup", backup)
	}
	return nil
}

func readJSONPoints(path string) ([]models.ClickPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []models.ClickPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	return points, checkPointCount(points)
}

func readBackupPoints(path string) ([]models.ClickPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var backup pointsBackup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return nil, err
	}
	return backup.Points, checkPointCount(backup.Points)
}

func checkPointCount(points []models.ClickPoint) error {
	if len(points) != models.PointCount {
		return fmt.Errorf("expected %d click points, got %d", models.PointCount, len(points))
	}
	return nil
}
