//go:build !novideo

package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
)

const videoAvailable = true

// DefaultOpenTimeout bounds how long a capture source may take to deliver its first frame.
const DefaultOpenTimeout = 15 * time.Second

// FFmpegBackend captures and encodes through ffmpeg subprocesses exchanging raw
// BGR24 frames over pipes.
type FFmpegBackend struct {
	path string

	// OpenTimeout overrides DefaultOpenTimeout when positive.
	OpenTimeout time.Duration

	once     sync.Once
	encoders map[string]bool
	probeErr error
}

// NewFFmpegBackend uses the given ffmpeg binary, or "ffmpeg" on PATH when empty.
func NewFFmpegBackend(path string) *FFmpegBackend {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegBackend{path: path}
}

// Available reports whether the ffmpeg binary can be found.
func (b *FFmpegBackend) Available() error {
	if _, err := exec.LookPath(b.path); err != nil {
		return fmt.Errorf("ffmpeg binary not found: %w", err)
	}
	return nil
}

// Encoders lists which of the encoders used by the supported formats this ffmpeg
// build has. The probe runs once; encoder support does not change at runtime.
func (b *FFmpegBackend) Encoders(ctx context.Context) (map[string]bool, error) {
	b.once.Do(func() {
		cmd := exec.CommandContext(ctx, b.path, "-hide_banner", "-encoders")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			b.probeErr = fmt.Errorf("ffmpeg check failed: %w", err)
			return
		}
		b.encoders = parseEncoders(out.String())
	})
	return b.encoders, b.probeErr
}

func parseEncoders(output string) map[string]bool {
	found := make(map[string]bool)
	for _, f := range []Format{FormatMP4, FormatAVI, FormatMKV} {
		found[f.Encoder()] = false
	}
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if _, ok := found[fields[1]]; ok {
			found[fields[1]] = true
		}
	}
	return found
}

func (b *FFmpegBackend) OpenCapture(src CameraSource) (Device, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := b.Available(); err != nil {
		return nil, err
	}
	timeout := b.OpenTimeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	return &ffmpegDevice{path: b.path, src: src, openTimeout: timeout, props: map[Prop]float64{
		PropWidth:  DefaultWidth,
		PropHeight: DefaultHeight,
		PropFPS:    DefaultFPS,
	}}, nil
}

func (b *FFmpegBackend) OpenWriter(path, fourcc string, fps float64, width, height int32) (Writer, error) {
	if err := b.Available(); err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", formatFloat(fps),
		"-i", "pipe:0",
		"-c:v", encoderForFourCC(fourcc),
	}
	if fourcc != "MJPG" {
		args = append(args, "-pix_fmt", "yuv420p")
	}
	args = append(args, path)

	cmd := exec.Command(b.path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder input: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}
	logger.L().Debug("FFmpeg encoder started", "pid", cmd.Process.Pid, "path", path)
	return &ffmpegWriter{cmd: cmd, stdin: stdin, stderr: &stderr, frameSize: int(width) * int(height) * 3}, nil
}

type ffmpegDevice struct {
	path        string
	src         CameraSource
	props       map[Prop]float64
	openTimeout time.Duration

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	buf     []byte
	stderr  bytes.Buffer
	pending bool
	exited  bool
}

// Opened starts the capture process and waits for the first frame, which is
// held for the next Read. A process that exits or stays silent past the open
// timeout leaves the device closed.
func (d *ffmpegDevice) Opened() bool {
	if d.cmd == nil {
		if err := d.open(); err != nil {
			logger.L().Warn("Capture source did not open", "source", d.src.Descriptor(), "error", err)
			return false
		}
	}
	return !d.exited || d.pending
}

// Set records the request. Output is scaled by ffmpeg, so every request is
// honoured; a running capture is restarted when a value changes.
func (d *ffmpegDevice) Set(p Prop, v float64) error {
	if v <= 0 {
		return fmt.Errorf("invalid %s %v", p, v)
	}
	if d.props[p] == v {
		return nil
	}
	d.props[p] = v
	if d.cmd == nil {
		return nil
	}
	_ = d.Release()
	d.reset()
	if err := d.open(); err != nil {
		return fmt.Errorf("capture restart failed: %w", err)
	}
	return nil
}

func (d *ffmpegDevice) Get(p Prop) (float64, error) {
	v, ok := d.props[p]
	if !ok {
		return 0, fmt.Errorf("unknown property %s", p)
	}
	return v, nil
}

func (d *ffmpegDevice) width() int32  { return int32(d.props[PropWidth]) }
func (d *ffmpegDevice) height() int32 { return int32(d.props[PropHeight]) }

func (d *ffmpegDevice) inputArgs() []string {
	switch s := d.src.(type) {
	case Webcam:
		return []string{
			"-f", "v4l2",
			"-video_size", fmt.Sprintf("%dx%d", d.width(), d.height()),
			"-framerate", formatFloat(d.props[PropFPS]),
			"-i", fmt.Sprintf("/dev/video%d", s.Index),
		}
	case RTSPStream:
		return []string{"-rtsp_transport", "tcp", "-i", s.URL}
	case VideoFile:
		return []string{"-re", "-i", s.Path}
	default:
		return []string{"-i", d.src.Descriptor()}
	}
}

func (d *ffmpegDevice) start() error {
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, d.inputArgs()...)
	args = append(args,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", d.width(), d.height()),
		"-r", formatFloat(d.props[PropFPS]),
		"-f", "rawvideo", "-pix_fmt", "bgr24",
		"pipe:1",
	)

	cmd := exec.Command(d.path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open capture output: %w", err)
	}
	cmd.Stderr = &d.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	logger.L().Debug("FFmpeg capture started", "pid", cmd.Process.Pid, "source", d.src.Descriptor())

	d.cmd = cmd
	d.stdout = stdout
	d.buf = make([]byte, int(d.width())*int(d.height())*3)
	return nil
}

// open starts ffmpeg and blocks until the first frame is buffered.
func (d *ffmpegDevice) open() error {
	if err := d.start(); err != nil {
		d.exited = true
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(d.stdout, d.buf)
		done <- err
	}()

	timer := time.NewTimer(d.openTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			if ferr := d.finish(err); !errors.Is(ferr, io.EOF) {
				return ferr
			}
			return errors.New("capture ended before the first frame")
		}
		d.pending = true
		return nil
	case <-timer.C:
		d.exited = true
		_ = d.cmd.Process.Kill()
		<-done
		_ = d.cmd.Wait()
		return fmt.Errorf("no frame from source within %s", d.openTimeout)
	}
}

// finish reaps the process after its output ended.
func (d *ffmpegDevice) finish(err error) error {
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	d.exited = true
	if werr := d.cmd.Wait(); werr != nil {
		return fmt.Errorf("capture process failed: %w: %s", werr, strings.TrimSpace(d.stderr.String()))
	}
	return io.EOF
}

func (d *ffmpegDevice) reset() {
	d.cmd = nil
	d.stdout = nil
	d.pending = false
	d.exited = false
	d.stderr.Reset()
}

func (d *ffmpegDevice) frame() Frame {
	data := make([]byte, len(d.buf))
	copy(data, d.buf)
	return Frame{Data: data, Width: d.width(), Height: d.height()}
}

func (d *ffmpegDevice) Read() (Frame, error) {
	if d.cmd == nil {
		if err := d.open(); err != nil {
			return Frame{}, err
		}
	}
	if d.pending {
		d.pending = false
		return d.frame(), nil
	}
	if d.exited {
		return Frame{}, io.EOF
	}

	if _, err := io.ReadFull(d.stdout, d.buf); err != nil {
		return Frame{}, d.finish(err)
	}
	return d.frame(), nil
}

func (d *ffmpegDevice) Release() error {
	if d.cmd == nil || d.exited {
		return nil
	}
	d.exited = true
	_ = d.cmd.Process.Kill()
	_ = d.cmd.Wait()
	return nil
}

type ffmpegWriter struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *bytes.Buffer
	frameSize int
	released  bool
}

func (w *ffmpegWriter) Opened() bool { return w.cmd.Process != nil }

func (w *ffmpegWriter) Write(f Frame) error {
	if len(f.Data) != w.frameSize {
		return fmt.Errorf("frame size %d does not match encoder size %d", len(f.Data), w.frameSize)
	}
	if _, err := w.stdin.Write(f.Data); err != nil {
		return fmt.Errorf("encoder write failed: %w", err)
	}
	return nil
}

// Release closes the encoder input and waits for ffmpeg to finalize the file.
func (w *ffmpegWriter) Release() error {
	if w.released {
		return nil
	}
	w.released = true
	_ = w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg execution failed: %w: %s", err, strings.TrimSpace(w.stderr.String()))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
