package video

// Prop is a capture property that can be requested and read back.
type Prop int

const (
	PropWidth Prop = iota
	PropHeight
	PropFPS
)

func (p Prop) String() string {
	switch p {
	case PropWidth:
		return "width"
	case PropHeight:
		return "height"
	case PropFPS:
		return "fps"
	default:
		return "unknown"
	}
}

// Frame is one packed BGR24 image.
type Frame struct {
	Data   []byte
	Width  int32
	Height int32
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool { return len(f.Data) == 0 }

// Device is an open capture source.
type Device interface {
	Opened() bool
	// Set requests a property. Backends may ignore or adjust the request.
	Set(p Prop, v float64) error
	// Get reads back the negotiated value.
	Get(p Prop) (float64, error)
	// Read returns the next frame, ErrNoFrame when none is ready yet, or io.EOF
	// when the source has ended.
	Read() (Frame, error)
	Release() error
}

// Writer encodes frames into an output file.
type Writer interface {
	Opened() bool
	Write(f Frame) error
	Release() error
}

// Backend opens capture devices and encoders.
type Backend interface {
	OpenCapture(src CameraSource) (Device, error)
	OpenWriter(path, fourcc string, fps float64, width, height int32) (Writer, error)
}

// Supported reports whether recording support is compiled in (false under the novideo tag).
func Supported() bool { return videoAvailable }
