package models

import (
	"fmt"
	"time"
)

// AutomationKind tags an AutomationMessage.
type AutomationKind int

const (
	AutomationLog AutomationKind = iota
	AutomationStatus
	AutomationUpdateTimer
	AutomationErrorPopup
	AutomationStop
)

var automationKindNames = map[AutomationKind]string{
	AutomationLog:         "log",
	AutomationStatus:      "status",
	AutomationUpdateTimer: "update_timer",
	AutomationErrorPopup:  "error_popup",
	AutomationStop:        "stop",
}

func (k AutomationKind) String() string {
	if name, ok := automationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("automation_kind(%d)", int(k))
}

// MarshalText encodes the kind by name so JSON consumers see "log", "status", ...
func (k AutomationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AutomationMessage is a one-way notification from the automation engine to its consumer.
// Text is set for Log, Status and ErrorPopup; Remaining for UpdateTimer.
type AutomationMessage struct {
	Kind      AutomationKind `json:"kind"`
	Text      string         `json:"text,omitempty"`
	Remaining int32          `json:"remaining,omitempty"`
}

func AutomationLogMsg(text string) AutomationMessage {
	return AutomationMessage{Kind: AutomationLog, Text: text}
}

func AutomationStatusMsg(text string) AutomationMessage {
	return AutomationMessage{Kind: AutomationStatus, Text: text}
}

func AutomationTimerMsg(remaining int32) AutomationMessage {
	return AutomationMessage{Kind: AutomationUpdateTimer, Remaining: remaining}
}

func AutomationErrorMsg(text string) AutomationMessage {
	return AutomationMessage{Kind: AutomationErrorPopup, Text: text}
}

func AutomationStopMsg() AutomationMessage {
	return AutomationMessage{Kind: AutomationStop}
}

// VideoKind tags a VideoMessage.
type VideoKind int

const (
	VideoLog VideoKind = iota
	VideoStatus
	VideoRecordingStarted
	VideoRecordingStopped
	VideoError
	VideoFramesCaptured
)

var videoKindNames = map[VideoKind]string{
	VideoLog:              "log",
	VideoStatus:           "status",
	VideoRecordingStarted: "recording_started",
	VideoRecordingStopped: "recording_stopped",
	VideoError:            "error",
	VideoFramesCaptured:   "frames_captured",
}

func (k VideoKind) String() string {
	if name, ok := videoKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("video_kind(%d)", int(k))
}

func (k VideoKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// VideoMessage is a one-way notification from a recorder to its consumer.
// Camera is filled for every kind so a shared consumer can route messages.
type VideoMessage struct {
	Kind            VideoKind `json:"kind"`
	Camera          string    `json:"camera"`
	Text            string    `json:"text,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	Path            string    `json:"path,omitempty"`
	DurationSeconds uint64    `json:"duration_seconds,omitempty"`
	Frames          uint64    `json:"frames,omitempty"`
}

// RecordingNotice announces a finished recording file to an upload/publishing collaborator.
type RecordingNotice struct {
	ID              string    `json:"id"`
	Camera          string    `json:"camera"`
	Path            string    `json:"path"`
	DurationSeconds uint64    `json:"duration_seconds"`
	FinishedAt      time.Time `json:"finished_at"`
}
