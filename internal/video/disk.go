package video

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
)

const bytesPerMB = 1024 * 1024

// FreeSpaceMB reports the free space of the filesystem holding dir.
func FreeSpaceMB(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free / bytesPerMB, nil
}

// checkDiskSpace warns when dir cannot hold one full segment. Probe failures are
// only logged at debug level.
func checkDiskSpace(dir string, needMB uint64) bool {
	if needMB == 0 {
		return true
	}
	free, err := FreeSpaceMB(dir)
	if err != nil {
		logger.L().Debug("Disk usage probe failed", "dir", dir, "error", err)
		return true
	}
	if free < needMB {
		logger.L().Warn("Low disk space for recordings", "dir", dir, "free_mb", free, "segment_limit_mb", needMB)
		return false
	}
	return true
}
