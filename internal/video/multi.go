package video

import (
	"fmt"
	"strings"
	"sync"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// MultiRecorder starts and stops a set of recorders that share one backend and sink.
type MultiRecorder struct {
	opts RecorderOptions

	mu        sync.Mutex
	recorders []*Recorder
}

// NewMultiRecorder creates an empty set. opts is copied into every added recorder.
func NewMultiRecorder(opts RecorderOptions) *MultiRecorder {
	return &MultiRecorder{opts: opts}
}

// AddCamera creates a recorder for info and returns it.
func (m *MultiRecorder) AddCamera(info CameraInfo, cfg VideoConfig) *Recorder {
	rec := NewRecorder(info, cfg, m.opts)
	m.mu.Lock()
	m.recorders = append(m.recorders, rec)
	m.mu.Unlock()
	return rec
}

// Recorders returns the recorders in the order they were added.
func (m *MultiRecorder) Recorders() []*Recorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Recorder(nil), m.recorders...)
}

// StartAll starts every recorder, continuing past failures. The returned error
// names every camera that failed to start.
func (m *MultiRecorder) StartAll() error {
	var failures []string
	for _, rec := range m.Recorders() {
		if err := rec.StartRecording(); err != nil {
			logger.L().Error("Failed to start camera", "camera", rec.Name(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", rec.Name(), err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to start some cameras: %s", strings.Join(failures, ", "))
	}
	return nil
}

// StopAll stops every recording camera in parallel. Errors are ignored.
func (m *MultiRecorder) StopAll() {
	var wg sync.WaitGroup
	for _, rec := range m.Recorders() {
		wg.Add(1)
		go func(r *Recorder) {
			defer wg.Done()
			_ = r.StopRecording()
		}(rec)
	}
	wg.Wait()
}

// RecordingCount is the number of recorders currently in the Recording state.
func (m *MultiRecorder) RecordingCount() int {
	n := 0
	for _, rec := range m.Recorders() {
		if rec.IsRecording() {
			n++
		}
	}
	return n
}

// States returns each camera's state keyed by name.
func (m *MultiRecorder) States() map[string]RecordingState {
	states := make(map[string]RecordingState)
	for _, rec := range m.Recorders() {
		states[rec.Name()] = rec.State()
	}
	return states
}

// Statuses returns a per-camera snapshot in insertion order.
func (m *MultiRecorder) Statuses() []models.CameraStatus {
	recs := m.Recorders()
	out := make([]models.CameraStatus, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Status())
	}
	return out
}

// Close stops all recordings and waits for every worker to exit.
func (m *MultiRecorder) Close() {
	m.StopAll()
	for _, rec := range m.Recorders() {
		rec.Wait()
	}
}
