package models

// AutomationView is the consumer-side view of the automation engine.
type AutomationView struct {
	Status     string `json:"status"`
	Running    bool   `json:"running"`
	Remaining  int32  `json:"remaining_seconds"`
	Iterations int    `json:"iterations"`
	LastError  string `json:"last_error,omitempty"`
}

// CameraStatus is the consumer-side view of one recorder.
type CameraStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	File   string `json:"file,omitempty"`
	Frames uint64 `json:"frames"`
	Error  string `json:"error,omitempty"`
}

// Snapshot is the full status served by the monitor API.
type Snapshot struct {
	Automation     AutomationView `json:"automation"`
	Cameras        []CameraStatus `json:"cameras"`
	RecordingCount int            `json:"recording_count"`
}
