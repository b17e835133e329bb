// Package video records camera sources to segmented files and fans recording out
// over several cameras.
package video

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/events"
	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// progressEvery is how many frames pass between FramesCaptured messages and file size checks.
const progressEvery = 100

// RecorderOptions carries a recorder's collaborators. Backend is required.
type RecorderOptions struct {
	Backend Backend
	Sink    events.Sink[models.VideoMessage]
	Clock   Clock
}

// Recorder drives one camera through open, capture, encode and close.
type Recorder struct {
	info    CameraInfo
	cfg     VideoConfig
	backend Backend
	sink    events.Sink[models.VideoMessage]
	clock   Clock

	loopDelay      time.Duration
	noFrameBackoff time.Duration

	mu      sync.Mutex
	state   RecordingState
	file    string
	frames  uint64
	lastErr string
	stopCh  chan struct{}
	done    chan struct{}
}

// NewRecorder creates the output directory (failure is logged, not returned) and
// warns when free space is below the file size limit.
func NewRecorder(info CameraInfo, cfg VideoConfig, opts RecorderOptions) *Recorder {
	if opts.Sink == nil {
		opts.Sink = events.Discard[models.VideoMessage]()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if info.Width <= 0 {
		info.Width = DefaultWidth
	}
	if info.Height <= 0 {
		info.Height = DefaultHeight
	}
	if info.FPS <= 0 {
		info.FPS = DefaultFPS
	}

	l := logger.L().With("camera", info.Name)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		l.Error("Failed to create output directory", "dir", cfg.OutputDir, "error", err)
	} else {
		checkDiskSpace(cfg.OutputDir, cfg.MaxFileSizeMB)
	}

	return &Recorder{
		info:           info,
		cfg:            cfg,
		backend:        opts.Backend,
		sink:           opts.Sink,
		clock:          opts.Clock,
		loopDelay:      time.Millisecond,
		noFrameBackoff: 100 * time.Millisecond,
	}
}

// Name returns the camera name.
func (r *Recorder) Name() string { return r.info.Name }

// State returns the current lifecycle state.
func (r *Recorder) State() RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRecording reports whether the state is Recording.
func (r *Recorder) IsRecording() bool { return r.State() == StateRecording }

// Status returns a snapshot for the monitor API.
func (r *Recorder) Status() models.CameraStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.CameraStatus{
		Name:   r.info.Name,
		State:  r.state.String(),
		File:   r.file,
		Frames: r.frames,
		Error:  r.lastErr,
	}
}

// StartRecording validates the source and starts the capture worker. It returns
// immediately; progress and failures are reported through the sink.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	prev := r.done
	r.mu.Unlock()

	if !videoAvailable {
		return ErrVideoUnavailable
	}
	if r.backend == nil {
		return errors.New("no capture backend configured")
	}
	if r.info.Source == nil {
		return errors.New("no camera source configured")
	}
	if err := r.info.Source.Validate(); err != nil {
		return err
	}
	if prev != nil {
		// A worker that ended on its own may still be writing its final state.
		<-prev
	}

	logger.L().Info("Starting recording", "camera", r.info.Name, "type", r.info.Source.Type())
	r.send(models.VideoMessage{Kind: models.VideoLog,
		Text: fmt.Sprintf("Starting recording: %s (%s)", r.info.Name, r.info.Source.Type())})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return ErrAlreadyRecording
	}
	r.state = StateRecording
	r.lastErr = ""
	r.frames = 0
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.stopCh, r.done)
	return nil
}

// StopRecording signals the worker and waits for it to release the device and writer.
func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.state = StateStopping
	close(r.stopCh)
	done := r.done
	r.mu.Unlock()

	logger.L().Info("Stopping recording", "camera", r.info.Name)
	r.send(models.VideoMessage{Kind: models.VideoLog, Text: "Stopping recording: " + r.info.Name})

	<-done

	r.mu.Lock()
	if r.state == StateStopping {
		r.state = StateIdle
	}
	r.mu.Unlock()
	return nil
}

// Close stops an active recording. It is safe to call on an idle recorder.
func (r *Recorder) Close() error {
	if err := r.StopRecording(); err != nil && !errors.Is(err, ErrNotRecording) {
		return err
	}
	return nil
}

// Wait blocks until the current worker, if any, has exited.
func (r *Recorder) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

type segmentResult int

const (
	segmentDone segmentResult = iota
	segmentRotate
	segmentFailed
)

func (r *Recorder) run(stop <-chan struct{}, done chan struct{}) {
	defer close(done)

	failed := r.capture(stop)

	r.mu.Lock()
	if failed {
		r.state = StateError
	} else if r.state != StateError {
		r.state = StateIdle
	}
	r.mu.Unlock()
}

// capture returns true when the recording ended in a hard failure.
func (r *Recorder) capture(stop <-chan struct{}) bool {
	r.log(fmt.Sprintf("Opening camera source: %s %s", r.info.Source.Type(), r.info.Source.Descriptor()))

	dev, err := r.backend.OpenCapture(r.info.Source)
	if err != nil {
		r.fail(fmt.Sprintf("Failed to open camera source: %v", err))
		return true
	}
	defer func() {
		if err := dev.Release(); err != nil {
			logger.L().Warn("Failed to release camera", "camera", r.info.Name, "error", err)
		}
	}()

	if !dev.Opened() {
		r.fail("Camera failed to open")
		return true
	}
	r.log("Camera opened successfully")

	r.request(dev, PropWidth, float64(r.info.Width))
	r.request(dev, PropHeight, float64(r.info.Height))
	r.request(dev, PropFPS, r.info.FPS)

	width := int32(r.negotiated(dev, PropWidth, float64(r.info.Width)))
	height := int32(r.negotiated(dev, PropHeight, float64(r.info.Height)))
	fps := r.negotiated(dev, PropFPS, r.info.FPS)
	r.log(fmt.Sprintf("Camera properties: %dx%d @ %.1f fps", width, height, fps))

	for {
		switch r.segment(dev, stop, width, height, fps) {
		case segmentRotate:
			r.log("Starting new segment")
		case segmentFailed:
			return true
		default:
			return false
		}
	}
}

func (r *Recorder) request(dev Device, p Prop, v float64) {
	if err := dev.Set(p, v); err != nil {
		logger.L().Debug("Camera property not applied", "camera", r.info.Name, "property", p.String(), "error", err)
	}
}

func (r *Recorder) negotiated(dev Device, p Prop, requested float64) float64 {
	v, err := dev.Get(p)
	if err != nil || v <= 0 {
		return requested
	}
	return v
}

// segment records one output file until a stop, a limit, the end of the stream or a failure.
func (r *Recorder) segment(dev Device, stop <-chan struct{}, width, height int32, fps float64) segmentResult {
	filename := GenerateFilename(r.info.Name, r.cfg.Format, r.clock.Now())
	path := uniquePath(filepath.Join(r.cfg.OutputDir, filename))
	filename = filepath.Base(path)
	r.log("Output file: " + path)

	w, err := r.backend.OpenWriter(path, r.cfg.Format.FourCC(), fps, width, height)
	if err != nil {
		r.fail(fmt.Sprintf("Failed to create video writer: %v", err))
		return segmentFailed
	}
	if !w.Opened() {
		_ = w.Release()
		r.fail("Video writer failed to open")
		return segmentFailed
	}
	r.log("Video writer ready")

	r.mu.Lock()
	r.file = path
	r.frames = 0
	r.mu.Unlock()

	r.send(models.VideoMessage{Kind: models.VideoRecordingStarted, Filename: filename, Path: path})
	r.log("Recording started")

	start := time.Now()
	frames, result := r.loop(dev, w, stop, path, start)

	if err := w.Release(); err != nil {
		logger.L().Warn("Failed to finalize recording", "camera", r.info.Name, "path", path, "error", err)
	}

	secs := uint64(time.Since(start).Seconds())
	r.log(fmt.Sprintf("Recording stopped. Duration: %ds, Frames: %d", secs, frames))
	r.send(models.VideoMessage{Kind: models.VideoRecordingStopped, Path: path, DurationSeconds: secs, Frames: frames})
	return result
}

func (r *Recorder) loop(dev Device, w Writer, stop <-chan struct{}, path string, start time.Time) (uint64, segmentResult) {
	var frames uint64
	for {
		select {
		case <-stop:
			r.log("Stop signal received")
			return frames, segmentDone
		default:
		}

		if r.cfg.MaxDuration > 0 && time.Since(start) >= r.cfg.MaxDuration {
			r.log(fmt.Sprintf("Max duration reached: %s", r.cfg.MaxDuration))
			return frames, r.limitReached()
		}

		frame, err := dev.Read()
		switch {
		case err == nil && frame.Empty():
			logger.L().Warn("Empty frame received", "camera", r.info.Name)
		case err == nil:
			if err := w.Write(frame); err != nil {
				r.fail(fmt.Sprintf("Failed to write frame: %v", err))
				return frames, segmentFailed
			}
			frames++
			r.setFrames(frames)
			if frames%progressEvery == 0 {
				r.send(models.VideoMessage{Kind: models.VideoFramesCaptured, Frames: frames})
				if r.sizeExceeded(path) {
					r.log(fmt.Sprintf("Max file size reached: %d MB", r.cfg.MaxFileSizeMB))
					return frames, r.limitReached()
				}
			}
		case errors.Is(err, ErrNoFrame):
			logger.L().Debug("Failed to read frame from camera", "camera", r.info.Name)
			if !sleepOrStop(stop, r.noFrameBackoff) {
				r.log("Stop signal received")
				return frames, segmentDone
			}
		case errors.Is(err, io.EOF):
			r.log("End of stream")
			return frames, segmentDone
		default:
			r.fail(fmt.Sprintf("Error reading frame: %v", err))
			return frames, segmentFailed
		}

		time.Sleep(r.loopDelay)
	}
}

func (r *Recorder) limitReached() segmentResult {
	if r.cfg.AutoRestart {
		return segmentRotate
	}
	return segmentDone
}

func (r *Recorder) sizeExceeded(path string) bool {
	if r.cfg.MaxFileSizeMB == 0 {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return uint64(fi.Size()) >= r.cfg.MaxFileSizeMB*bytesPerMB
}

func (r *Recorder) setFrames(n uint64) {
	r.mu.Lock()
	r.frames = n
	r.mu.Unlock()
}

func (r *Recorder) log(text string) {
	logger.L().Info(text, "camera", r.info.Name)
	r.send(models.VideoMessage{Kind: models.VideoLog, Text: text})
}

// fail reports a hard failure and moves the recorder to Error.
func (r *Recorder) fail(text string) {
	logger.L().Error(text, "camera", r.info.Name)
	r.mu.Lock()
	r.state = StateError
	r.lastErr = text
	r.mu.Unlock()
	r.send(models.VideoMessage{Kind: models.VideoError, Text: text})
}

func (r *Recorder) send(msg models.VideoMessage) {
	msg.Camera = r.info.Name
	r.sink.Send(msg)
}

func sleepOrStop(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

// uniquePath appends _1, _2, ... before the extension until path does not exist.
// Segments rotated within the same second would otherwise share a name.
func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}
