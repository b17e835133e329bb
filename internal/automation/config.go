package automation

import (
	"fmt"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Defaults used when the corresponding setting is absent.
const (
	DefaultTotalWaitSeconds = 11*3600 + 30*60
	DefaultStepDelaySeconds = 10
	DefaultMaxRetries       = 3
	DefaultStep4WaitSeconds = 10
)

// RunConfig is the immutable parameter set of one engine run.
type RunConfig struct {
	Points           [models.PointCount]models.ClickPoint
	TotalWaitSeconds int
	StepDelaySeconds int
	MaxRetries       int
	Step4WaitSeconds int
	DryRun           bool
}

// NewRunConfig validates the point layout and clamps the numeric parameters:
// negative waits become 0 and MaxRetries is at least 1.
func NewRunConfig(points []models.ClickPoint, totalWait, stepDelay, maxRetries, step4Wait int, dryRun bool) (RunConfig, error) {
	if len(points) != models.PointCount {
		return RunConfig{}, fmt.Errorf("automation needs exactly %d click points, got %d", models.PointCount, len(points))
	}

	cfg := RunConfig{
		TotalWaitSeconds: max(totalWait, 0),
		StepDelaySeconds: max(stepDelay, 0),
		MaxRetries:       max(maxRetries, 1),
		Step4WaitSeconds: max(step4Wait, 0),
		DryRun:           dryRun,
	}
	copy(cfg.Points[:], points)
	return cfg, nil
}

// ConfigFromSettings builds a RunConfig from the automation section of the daemon
// config, using the package defaults for unset values.
func ConfigFromSettings(s models.AutomationSettings, points []models.ClickPoint) (RunConfig, error) {
	return NewRunConfig(points,
		intOr(s.TotalWaitSeconds, DefaultTotalWaitSeconds),
		intOr(s.StepDelaySeconds, DefaultStepDelaySeconds),
		intOr(s.MaxRetries, DefaultMaxRetries),
		intOr(s.Step4WaitSeconds, DefaultStep4WaitSeconds),
		s.DryRun,
	)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
