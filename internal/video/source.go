package video

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CameraSource identifies where frames come from. The set of implementations is closed.
type CameraSource interface {
	// Type is a short label: "Webcam", "RTSP", "HTTP" or "File".
	Type() string
	// Descriptor is the index, URL or path handed to the capture backend.
	Descriptor() string
	// Validate checks the source is well formed without touching the device.
	Validate() error

	isCameraSource()
}

// Webcam is a local capture device by index (0 = default).
type Webcam struct {
	Index int32
}

// RTSPStream is an IP camera RTSP stream.
type RTSPStream struct {
	URL string
}

// HTTPStream is an HTTP/MJPEG stream.
type HTTPStream struct {
	URL string
}

// VideoFile replays a file, mostly useful for testing.
type VideoFile struct {
	Path string
}

func (Webcam) Type() string     { return "Webcam" }
func (RTSPStream) Type() string { return "RTSP" }
func (HTTPStream) Type() string { return "HTTP" }
func (VideoFile) Type() string  { return "File" }

func (s Webcam) Descriptor() string     { return fmt.Sprintf("%d", s.Index) }
func (s RTSPStream) Descriptor() string { return s.URL }
func (s HTTPStream) Descriptor() string { return s.URL }
func (s VideoFile) Descriptor() string  { return s.Path }

func (s Webcam) Validate() error {
	if s.Index < 0 {
		return fmt.Errorf("invalid webcam index %d", s.Index)
	}
	return nil
}

func (s RTSPStream) Validate() error { return validateURL(s.URL, "rtsp", "rtsps") }
func (s HTTPStream) Validate() error { return validateURL(s.URL, "http", "https") }

func (s VideoFile) Validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return errors.New("video file path is empty")
	}
	return nil
}

func (Webcam) isCameraSource()     {}
func (RTSPStream) isCameraSource() {}
func (HTTPStream) isCameraSource() {}
func (VideoFile) isCameraSource()  {}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid stream url '%s': %w", raw, err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid stream url '%s': missing host", raw)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("invalid stream url '%s': scheme must be one of %s", raw, strings.Join(schemes, ", "))
}

// ParseSource builds a CameraSource from its config form: a type name plus the
// field that type uses.
func ParseSource(kind string, index int32, rawURL, path string) (CameraSource, error) {
	switch strings.ToLower(kind) {
	case "webcam", "":
		return Webcam{Index: index}, nil
	case "rtsp":
		return RTSPStream{URL: rawURL}, nil
	case "http", "mjpeg":
		return HTTPStream{URL: rawURL}, nil
	case "file":
		return VideoFile{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown camera type '%s'", kind)
	}
}
