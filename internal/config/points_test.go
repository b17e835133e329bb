package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

func testInitLogger(t *testing.T) {
	t.Helper()
	settings := models.ApplicationSettings{LogLevel: "error", LogFormat: "text"}
	err := logger.Init(settings, io.Discard)
	require.NoError(t, err, "Failed to initialize logger for test")
}

func customPoints() []models.ClickPoint {
	points := models.DefaultPoints()
	for i := range points {
		points[i].X += 10
		points[i].Y += 20
	}
	return points
}

func TestSaveAndLoadPoints(t *testing.T) {
	testInitLogger(t)
	path := filepath.Join(t.TempDir(), "clickpoints.json")

	require.NoError(t, SavePoints(path, customPoints()))
	assert.FileExists(t, path)
	assert.FileExists(t, BackupPath(path))

	assert.Equal(t, customPoints(), LoadPoints(path))
}

func TestSavePoints_WrongCount(t *testing.T) {
	testInitLogger(t)
	path := filepath.Join(t.TempDir(), "clickpoints.json")

	err := SavePoints(path, customPoints()[:3])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 6 click points, got 3")
	assert.NoFileExists(t, path)
}

func TestSavePoints_UnwritableDir(t *testing.T) {
	testInitLogger(t)
	path := filepath.Join(t.TempDir(), "missing", "clickpoints.json")

	err := SavePoints(path, customPoints())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write click points file")
}

func TestLoadPoints_Fallbacks(t *testing.T) {
	testInitLogger(t)

	tests := []struct {
		name     string
		primary  string // "" means the file is absent
		backup   bool
		expected []models.ClickPoint
	}{
		{name: "Nothing on disk", expected: models.DefaultPoints()},
		{name: "Corrupt primary, good backup", primary: "{not json", backup: true, expected: customPoints()},
		{name: "Missing primary, good backup", backup: true, expected: customPoints()},
		{name: "Too few points, no backup", primary: `[{"name":"a","x":1,"y":2}]`, expected: models.DefaultPoints()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "clickpoints.json")
			if tt.backup {
				require.NoError(t, SavePoints(path, customPoints()))
				require.NoError(t, os.Remove(path))
			}
			if tt.primary != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.primary), 0644))
			}

			assert.Equal(t, tt.expected, LoadPoints(path))
		})
	}
}

func TestLoadPoints_CorruptBackup(t *testing.T) {
	testInitLogger(t)
	path := filepath.Join(t.TempDir(), "clickpoints.json")
	require.NoError(t, os.WriteFile(BackupPath(path), []byte("points: [oops"), 0644))

	assert.Equal(t, models.DefaultPoints(), LoadPoints(path))
}
