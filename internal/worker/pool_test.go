package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/internal/queue"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testInitLogger initializes the logger for test execution, discarding output.
func testInitLogger(t *testing.T) {
	t.Helper()
	settings := models.ApplicationSettings{LogLevel: "error", LogFormat: "text"}
	err := logger.Init(settings, io.Discard)
	require.NoError(t, err, "Failed to initialize logger for test")
}

type mockProcessor struct {
	processFunc  func(ctx context.Context, n models.RecordingNotice) error
	callCount    atomic.Int32
	mu           sync.Mutex
	processedIDs map[string]bool
}

func newMockProcessor(processFunc func(ctx context.Context, n models.RecordingNotice) error) *mockProcessor {
	if processFunc == nil {
		processFunc = func(ctx context.Context, n models.RecordingNotice) error { return nil }
	}
	return &mockProcessor{processFunc: processFunc, processedIDs: make(map[string]bool)}
}

func (m *mockProcessor) Process(ctx context.Context, n models.RecordingNotice) error {
	m.callCount.Add(1)
	m.mu.Lock()
	m.processedIDs[n.ID] = true
	m.mu.Unlock()
	return m.processFunc(ctx, n)
}

func (m *mockProcessor) GetCallCount() int { return int(m.callCount.Load()) }

func (m *mockProcessor) HasProcessed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processedIDs[id]
}

func startedQueue(t *testing.T) *queue.NoticeQueue {
	t.Helper()
	q := queue.NewNoticeQueue(10, "")
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Stop() })
	return q
}

func TestNewPool(t *testing.T) {
	testInitLogger(t)
	q := queue.NewNoticeQueue(10, "")
	proc := newMockProcessor(nil)

	pool := NewPool(5, q, proc)

	require.NotNil(t, pool)
	assert.Equal(t, 5, pool.concurrency)
	assert.Equal(t, q, pool.queue)
	assert.Equal(t, proc, pool.processor)
	assert.Nil(t, pool.cancelCtx)
}

func TestPool_StartStop(t *testing.T) {
	testInitLogger(t)
	pool := NewPool(2, startedQueue(t), newMockProcessor(nil))

	pool.Start()
	require.NotNil(t, pool.cancelCtx)
	time.Sleep(20 * time.Millisecond)
	pool.Stop()
	pool.Stop()
}

func TestPool_ProcessNotices(t *testing.T) {
	testInitLogger(t)
	q := startedQueue(t)
	proc := newMockProcessor(nil)
	pool := NewPool(2, q, proc)
	pool.Start()
	defer pool.Stop()

	a, err := q.Enqueue(models.RecordingNotice{Camera: "Lobby", Path: "/rec/a.mp4"})
	require.NoError(t, err)
	b, err := q.Enqueue(models.RecordingNotice{Camera: "Yard", Path: "/rec/b.mp4"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return proc.GetCallCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, proc.HasProcessed(a.ID))
	assert.True(t, proc.HasProcessed(b.ID))
	processed, failed := pool.Stats()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 0, failed)
}

func TestPool_ProcessorError(t *testing.T) {
	testInitLogger(t)
	q := startedQueue(t)
	proc := newMockProcessor(func(ctx context.Context, n models.RecordingNotice) error {
		return fmt.Errorf("delivery failed for %s", n.ID)
	})
	pool := NewPool(1, q, proc)
	pool.Start()
	defer pool.Stop()

	_, err := q.Enqueue(models.RecordingNotice{Camera: "Lobby"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, failed := pool.Stats()
		return failed == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPool_StopCancelsContext(t *testing.T) {
	testInitLogger(t)
	q := startedQueue(t)
	block := make(chan struct{})
	var procErr atomic.Value
	proc := newMockProcessor(func(ctx context.Context, n models.RecordingNotice) error {
		<-block
		procErr.Store(ctx.Err())
		return nil
	})
	pool := NewPool(1, q, proc)
	pool.Start()

	_, err := q.Enqueue(models.RecordingNotice{Camera: "Lobby"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return proc.GetCallCount() == 1 }, time.Second, 10*time.Millisecond)

	stopDone := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopDone)
	}()
	time.Sleep(50 * time.Millisecond)
	close(block)

	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Pool Stop() timed out")
	}
	assert.ErrorIs(t, procErr.Load().(error), context.Canceled)
}

func TestPool_StopRequeuesInterruptedNotice(t *testing.T) {
	testInitLogger(t)
	q := startedQueue(t)
	proc := newMockProcessor(func(ctx context.Context, n models.RecordingNotice) error {
		<-ctx.Done()
		return fmt.Errorf("webhook request failed: %w", ctx.Err())
	})
	pool := NewPool(1, q, proc)
	pool.Start()

	stored, err := q.Enqueue(models.RecordingNotice{Camera: "Lobby", Path: "/rec/Lobby_20261014_093000.mp4"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return proc.GetCallCount() == 1 }, time.Second, 10*time.Millisecond)

	pool.Stop()

	assert.Equal(t, 1, q.Len())
	processed, failed := pool.Stats()
	assert.Zero(t, processed)
	assert.Zero(t, failed, "an interrupted delivery is not a failure")

	n, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored.ID, n.ID)
}

func TestPool_QueueStopEndsWorkers(t *testing.T) {
	testInitLogger(t)
	q := queue.NewNoticeQueue(10, "")
	require.NoError(t, q.Start())
	pool := NewPool(0, q, ProcessorFunc(func(context.Context, models.RecordingNotice) error { return nil }))
	pool.Start()

	require.NoError(t, q.Stop())

	done := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after the queue stopped")
	}
	pool.Stop()
}
