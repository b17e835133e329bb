//go:build novideo

package video

import "context"

const videoAvailable = false

// FFmpegBackend is a placeholder in builds without video support; every
// operation fails with ErrVideoUnavailable.
type FFmpegBackend struct{}

func NewFFmpegBackend(string) *FFmpegBackend { return &FFmpegBackend{} }

func (*FFmpegBackend) Available() error { return ErrVideoUnavailable }

func (*FFmpegBackend) Encoders(context.Context) (map[string]bool, error) {
	return nil, ErrVideoUnavailable
}

func (*FFmpegBackend) OpenCapture(CameraSource) (Device, error) { return nil, ErrVideoUnavailable }

func (*FFmpegBackend) OpenWriter(string, string, float64, int32, int32) (Writer, error) {
	return nil, ErrVideoUnavailable
}
