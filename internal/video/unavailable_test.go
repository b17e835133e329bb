//go:build novideo

package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartRecording_Unavailable(t *testing.T) {
	rec := NewRecorder(NewCameraInfo("cam", Webcam{}), VideoConfig{OutputDir: t.TempDir()}, RecorderOptions{Backend: NewFFmpegBackend("")})
	assert.ErrorIs(t, rec.StartRecording(), ErrVideoUnavailable)
	assert.Equal(t, StateIdle, rec.State())
	assert.ErrorIs(t, NewFFmpegBackend("").Available(), ErrVideoUnavailable)
	assert.False(t, Supported())
}
