package video

import (
	"errors"
	"time"
)

// RecordingState is the lifecycle state of a Recorder.
type RecordingState int

const (
	StateIdle RecordingState = iota
	StateRecording
	StateStopping
	StateError
)

func (s RecordingState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRecording:
		return "Recording"
	case StateStopping:
		return "Stopping"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

func (s RecordingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not currently recording")
	// ErrVideoUnavailable is returned by StartRecording in builds without a capture backend.
	ErrVideoUnavailable = errors.New("video recording not available: binary built with -tags novideo")
	// ErrNoFrame is returned by Device.Read when no frame is ready yet.
	ErrNoFrame = errors.New("no frame available")
)

// Clock supplies the timestamp embedded in output filenames.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
