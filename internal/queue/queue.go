// Package queue holds finished-recording notices until a worker delivers them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

const defaultQueueCapacity = 1000

var (
	// ErrStopped is returned once the queue has been stopped and drained.
	ErrStopped = errors.New("notice queue stopped")
	// ErrFull is returned by Enqueue when the buffer has no room.
	ErrFull = errors.New("notice queue full")
)

// NoticeQueue is a bounded FIFO of recording notices that survives restarts by
// persisting pending notices to a JSON file on Stop.
type NoticeQueue struct {
	queue       chan models.RecordingNotice
	capacity    int
	persistPath string
	mu          sync.Mutex // Serializes Start/Stop
	stopChan    chan struct{}
}

// NewNoticeQueue creates an empty queue. capacity <= 0 uses the default.
func NewNoticeQueue(capacity int, persistPath string) *NoticeQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &NoticeQueue{
		queue:       make(chan models.RecordingNotice, capacity),
		capacity:    capacity,
		persistPath: persistPath,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue adds a notice without blocking. A missing ID or timestamp is filled in.
// It returns the stored notice.
func (q *NoticeQueue) Enqueue(n models.RecordingNotice) (models.RecordingNotice, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.FinishedAt.IsZero() {
		n.FinishedAt = time.Now()
	}

	select {
	case <-q.stopChan:
		return n, fmt.Errorf("notice queue is stopped, cannot enqueue notice %s: %w", n.ID, ErrStopped)
	default:
	}

	select {
	case q.queue <- n:
		logger.L().Debug("Notice enqueued", "notice_id", n.ID, "camera", n.Camera, "path", n.Path)
		return n, nil
	default:
		return n, fmt.Errorf("cannot enqueue notice %s: %w", n.ID, ErrFull)
	}
}

// Dequeue blocks until a notice is available, ctx is done, or the queue is stopped.
func (q *NoticeQueue) Dequeue(ctx context.Context) (models.RecordingNotice, error) {
	select {
	case n := <-q.queue:
		logger.L().Debug("Notice dequeued", "notice_id", n.ID)
		return n, nil
	case <-ctx.Done():
		return models.RecordingNotice{}, ctx.Err()
	case <-q.stopChan:
		select {
		case n, ok := <-q.queue:
			if ok {
				return n, nil
			}
		default:
		}
		return models.RecordingNotice{}, ErrStopped
	}
}

// Len reports the number of pending notices.
func (q *NoticeQueue) Len() int { return len(q.queue) }

// Start loads persisted notices. Load failures are logged and the queue starts empty.
func (q *NoticeQueue) Start() error {
	if err := q.loadState(); err != nil {
		logger.L().Error("Failed to load queue state, starting empty.", "error", err)
	} else {
		logger.L().Info("Notice queue started", "capacity", q.capacity, "persistence_path", q.persistPath)
	}
	return nil
}

// Stop rejects further notices and persists whatever is still pending. It is idempotent.
func (q *NoticeQueue) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.stopChan:
		return nil
	default:
	}

	logger.L().Info("Stopping notice queue...")
	close(q.stopChan)

	if err := q.saveState(); err != nil {
		logger.L().Error("Failed to save queue state during stop.", "error", err)
		return fmt.Errorf("failed to save queue state: %w", err)
	}
	logger.L().Info("Notice queue stopped successfully.")
	return nil
}

func (q *NoticeQueue) loadState() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.persistPath == "" {
		return nil
	}

	data, err := os.ReadFile(q.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.L().Info("Queue persistence file not found, starting fresh.", "path", q.persistPath)
			return nil
		}
		return fmt.Errorf("failed to read queue state file '%s': %w", q.persistPath, err)
	}
	if len(data) == 0 {
		return nil
	}

	var notices []models.RecordingNotice
	if err := json.Unmarshal(data, &notices); err != nil {
		return fmt.Errorf("failed to unmarshal queue state from '%s': %w", q.persistPath, err)
	}

	for i, n := range notices {
		select {
		case q.queue <- n:
		default:
			return fmt.Errorf("failed to load notice %s, queue full after %d notices", n.ID, i)
		}
	}
	logger.L().Info("Loaded notices from persistence.", "count", len(notices), "path", q.persistPath)
	return nil
}

// saveState drains the buffer into the persistence file. Called with mu held and
// stopChan closed, so no new notices arrive while draining.
func (q *NoticeQueue) saveState() error {
	if q.persistPath == "" {
		return nil
	}

	notices := make([]models.RecordingNotice, 0, len(q.queue))
DRAIN:
	for {
		select {
		case n := <-q.queue:
			notices = append(notices, n)
		default:
			break DRAIN
		}
	}

	data, err := json.MarshalIndent(notices, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}

	tempFile := q.persistPath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary queue state file '%s': %w", tempFile, err)
	}
	if err := os.Rename(tempFile, q.persistPath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary queue state file to '%s': %w", q.persistPath, err)
	}

	logger.L().Info("Persisted pending notices.", "count", len(notices), "path", q.persistPath)
	return nil
}
