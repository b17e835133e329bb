package automation

import (
	"errors"
	"fmt"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

var (
	// ErrWatchdogTimeout is returned by Run when the watchdog stopped an unresponsive run.
	ErrWatchdogTimeout = errors.New("watchdog timeout: automation unresponsive")
	// ErrAlreadyRun is returned when Run is called on an engine that has already run.
	ErrAlreadyRun = errors.New("automation engine already ran")

	// errInterrupted marks a stop request observed mid-step. Run converts it to nil.
	errInterrupted = errors.New("interrupted")
)

// StepError reports a click step that failed on every attempt.
type StepError struct {
	Point    models.ClickPoint
	Attempts int
	Err      error // Last injection error, if any
}

func (e *StepError) Error() string {
	return fmt.Sprintf("Failed: %s", e.Point.Name)
}

func (e *StepError) Unwrap() error { return e.Err }
