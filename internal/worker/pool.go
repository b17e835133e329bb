// Package worker delivers queued recording notices with a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/internal/queue"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Processor handles one dequeued notice.
type Processor interface {
	Process(ctx context.Context, notice models.RecordingNotice) error
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc func(ctx context.Context, notice models.RecordingNotice) error

func (f ProcessorFunc) Process(ctx context.Context, notice models.RecordingNotice) error {
	return f(ctx, notice)
}

// Pool runs Concurrency workers that feed notices from a queue to a Processor.
type Pool struct {
	concurrency int
	queue       *queue.NoticeQueue
	processor   Processor

	mu        sync.Mutex
	wg        sync.WaitGroup
	cancelCtx context.CancelFunc
	failed    int
	processed int
}

// NewPool creates a pool. concurrency <= 0 runs a single worker.
func NewPool(concurrency int, q *queue.NoticeQueue, proc Processor) *Pool {
	return &Pool{concurrency: concurrency, queue: q, processor: proc}
}

// Start launches the workers.
func (p *Pool) Start() {
	concurrency := p.concurrency
	if concurrency <= 0 {
		logger.L().Warn("Notifier concurrency not set or invalid, defaulting to 1", "configured_value", p.concurrency)
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancelCtx = cancel
	p.mu.Unlock()

	logger.L().Info("Starting worker pool", "concurrency", concurrency)
	p.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go p.worker(ctx, i)
	}
}

// Stop cancels the workers and waits for them to exit. A notice whose delivery is
// interrupted goes back on the queue, so stop the pool before the queue. It is idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.cancelCtx
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	logger.L().Info("Worker pool stopped")
}

// Stats returns how many notices were delivered and how many failed.
func (p *Pool) Stats() (processed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.failed
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger.L().Debug("Worker started", "worker_id", id)

	for {
		notice, err := p.queue.Dequeue(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				logger.L().Debug("Worker stopping: context done", "worker_id", id)
			case errors.Is(err, queue.ErrStopped):
				logger.L().Debug("Worker stopping: notice queue stopped", "worker_id", id)
			default:
				logger.L().Error("Worker failed to dequeue notice", "worker_id", id, "error", err)
			}
			return
		}

		l := logger.L().With("worker_id", id, "notice_id", notice.ID, "camera", notice.Camera)
		l.Debug("Worker processing notice")
		procErr := p.processor.Process(ctx, notice)

		if procErr != nil && ctx.Err() != nil {
			// Delivery was cut short by Stop; put the notice back so the queue persists it.
			if _, err := p.queue.Enqueue(notice); err != nil {
				l.Error("Failed to requeue interrupted notice", "error", err)
			} else {
				l.Info("Interrupted notice requeued")
			}
			return
		}

		p.mu.Lock()
		if procErr != nil {
			p.failed++
		} else {
			p.processed++
		}
		p.mu.Unlock()

		if procErr != nil {
			l.Error("Worker failed to process notice", "error", procErr)
		} else {
			l.Info("Recording notice delivered", "path", notice.Path)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
