package relay

import (
	"strings"
	"sync"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

const (
	statusRunning = "Status: Running"
	statusStopped = "Status: Stopped"
	statusIdle    = "Status: Idle"
)

// Cameras is the read side of the multi-camera recorder.
type Cameras interface {
	Statuses() []models.CameraStatus
	RecordingCount() int
}

// Board aggregates relayed messages into the status served by the monitor API.
// Camera state is read live from the recorders; automation state is derived from
// the engine's messages.
type Board struct {
	mu         sync.Mutex
	automation models.AutomationView
	cameras    Cameras
}

// NewBoard creates a board. cameras may be nil when recording is disabled.
func NewBoard(cameras Cameras) *Board {
	return &Board{
		automation: models.AutomationView{Status: statusIdle},
		cameras:    cameras,
	}
}

// ApplyAutomation folds one engine message into the automation status.
func (b *Board) ApplyAutomation(msg models.AutomationMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &b.automation
	switch msg.Kind {
	case models.AutomationStatus:
		a.Status = msg.Text
		a.Running = msg.Text == statusRunning
		if a.Running {
			a.LastError = ""
		}
	case models.AutomationUpdateTimer:
		a.Remaining = msg.Remaining
	case models.AutomationLog:
		if isIterationComplete(msg.Text) {
			a.Iterations++
			a.Remaining = 0
		}
	case models.AutomationErrorPopup:
		a.LastError = msg.Text
	case models.AutomationStop:
		a.Running = false
		a.Remaining = 0
		if !strings.Contains(a.Status, "Error") {
			a.Status = statusStopped
		}
	}
}

// Snapshot returns a copy of the current status.
func (b *Board) Snapshot() models.Snapshot {
	b.mu.Lock()
	snap := models.Snapshot{Automation: b.automation}
	b.mu.Unlock()

	snap.Cameras = []models.CameraStatus{}
	if b.cameras != nil {
		snap.Cameras = b.cameras.Statuses()
		snap.RecordingCount = b.cameras.RecordingCount()
	}
	return snap
}

func isIterationComplete(text string) bool {
	return strings.Contains(text, "Iteration") && strings.Contains(text, "complete")
}
