//go:build !novideo

package video

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SecCamCloud/seccamcloud/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoders(t *testing.T) {
	output := `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V.S... mpeg4                MPEG-4 part 2
 A....D aac                  AAC (Advanced Audio Coding)
`
	found := parseEncoders(output)
	assert.Equal(t, map[string]bool{"mpeg4": true, "libx264": true, "mjpeg": false}, found)
	assert.True(t, Supported())
}

func TestFFmpegDevice_InputArgs(t *testing.T) {
	b := NewFFmpegBackend("/nonexistent/ffmpeg")
	_, err := b.OpenCapture(Webcam{Index: 0})
	assert.ErrorContains(t, err, "ffmpeg binary not found")

	_, err = b.OpenCapture(RTSPStream{URL: "bogus"})
	assert.Error(t, err, "sources are validated before the binary")

	d := &ffmpegDevice{src: Webcam{Index: 3}, props: map[Prop]float64{PropWidth: 640, PropHeight: 480, PropFPS: 15}}
	assert.Equal(t, []string{"-f", "v4l2", "-video_size", "640x480", "-framerate", "15", "-i", "/dev/video3"}, d.inputArgs())

	d.src = RTSPStream{URL: "rtsp://cam/1"}
	assert.Equal(t, []string{"-rtsp_transport", "tcp", "-i", "rtsp://cam/1"}, d.inputArgs())

	d.src = HTTPStream{URL: "http://cam/mjpeg"}
	assert.Equal(t, []string{"-i", "http://cam/mjpeg"}, d.inputArgs())

	require.NoError(t, d.Set(PropFPS, 25))
	assert.Error(t, d.Set(PropWidth, 0))
	v, err := d.Get(PropFPS)
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)
	assert.NoError(t, d.Release(), "release before start is a no-op")
}

// fakeFFmpeg writes an executable shell script standing in for the ffmpeg binary.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFmpegDevice_Opened(t *testing.T) {
	tests := []struct {
		name   string
		script string
		opened bool
	}{
		{"Process exits with error", "echo 'clip.mp4: No such file or directory' >&2\nexit 1", false},
		{"Process ends without output", "exit 0", false},
		{"Process stays silent", "exec sleep 5", false},
		{"Frames arrive", "exec cat /dev/zero", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testInitLogger(t)
			b := NewFFmpegBackend(fakeFFmpeg(t, tt.script))
			b.OpenTimeout = 200 * time.Millisecond

			dev, err := b.OpenCapture(VideoFile{Path: "/nonexistent/clip.mp4"})
			require.NoError(t, err)
			defer dev.Release()

			assert.Equal(t, tt.opened, dev.Opened())
		})
	}
}

func TestFFmpegDevice_FirstFrameBuffered(t *testing.T) {
	testInitLogger(t)
	// Two 4x2 BGR frames, then end of stream.
	b := NewFFmpegBackend(fakeFFmpeg(t, "head -c 48 /dev/zero"))

	dev, err := b.OpenCapture(VideoFile{Path: "clip.mp4"})
	require.NoError(t, err)
	defer dev.Release()
	require.NoError(t, dev.Set(PropWidth, 4))
	require.NoError(t, dev.Set(PropHeight, 2))

	require.True(t, dev.Opened())
	for i := 0; i < 2; i++ {
		f, err := dev.Read()
		require.NoError(t, err, "frame %d", i)
		assert.Len(t, f.Data, 24)
		assert.Equal(t, int32(4), f.Width)
	}
	_, err = dev.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFFmpegDevice_SetRestartsCapture(t *testing.T) {
	testInitLogger(t)
	b := NewFFmpegBackend(fakeFFmpeg(t, "exec cat /dev/zero"))

	dev, err := b.OpenCapture(Webcam{Index: 0})
	require.NoError(t, err)
	defer dev.Release()

	require.True(t, dev.Opened())
	require.NoError(t, dev.Set(PropWidth, 8))
	require.NoError(t, dev.Set(PropHeight, 2))
	assert.True(t, dev.Opened())

	f, err := dev.Read()
	require.NoError(t, err)
	assert.Len(t, f.Data, 8*2*3)
}

func TestRecorder_CaptureFailsBeforeWriterOpens(t *testing.T) {
	testInitLogger(t)
	b := NewFFmpegBackend(fakeFFmpeg(t, "echo 'Connection refused' >&2\nexit 1"))
	b.OpenTimeout = 500 * time.Millisecond
	sink := &messageLog{}
	cfg := testVideoConfig(t)
	rec := NewRecorder(NewCameraInfo("Ghost", VideoFile{Path: "/nonexistent/clip.mp4"}), cfg, RecorderOptions{Backend: b, Sink: sink, Clock: fixedClock{}})
	t.Cleanup(func() { _ = rec.Close() })

	require.NoError(t, rec.StartRecording())
	rec.Wait()

	assert.Equal(t, StateError, rec.State())
	assert.True(t, sink.hasText(models.VideoError, "Camera failed to open"))
	assert.False(t, sink.hasText(models.VideoLog, "Camera opened successfully"))
	assert.Zero(t, sink.count(models.VideoRecordingStarted))
	assert.Zero(t, sink.count(models.VideoRecordingStopped))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output file is created")
}
