package automation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/events"
	"github.com/SecCamCloud/seccamcloud/internal/input"
	"github.com/SecCamCloud/seccamcloud/internal/logger"
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

// mockInjector records calls and can be told to fail or block.
type mockInjector struct {
	mu         sync.Mutex
	moves      int
	clicks     int
	typed      []string
	clickErr   error
	typeErr    error
	clickBlock time.Duration // First click sleeps this long
	hang       bool          // Every click blocks until its context is done
}

func (m *mockInjector) MoveCursor(_ context.Context, x, y int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves++
	return nil
}

func (m *mockInjector) Click(ctx context.Context, b input.Button) error {
	m.mu.Lock()
	m.clicks++
	first := m.clicks == 1
	block := m.clickBlock
	hang := m.hang
	err := m.clickErr
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if first && block > 0 {
		time.Sleep(block)
	}
	return err
}

func (m *mockInjector) TypeText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typed = append(m.typed, text)
	return m.typeErr
}

func (m *mockInjector) calls() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moves, m.clicks, len(m.typed)
}

// recordingSink captures messages and can run a hook on each one.
type recordingSink struct {
	mu   sync.Mutex
	msgs []models.AutomationMessage
	hook func(models.AutomationMessage)
}

func (r *recordingSink) Send(msg models.AutomationMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
}

func (r *recordingSink) all() []models.AutomationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AutomationMessage(nil), r.msgs...)
}

func (r *recordingSink) logs() []string {
	var out []string
	for _, m := range r.all() {
		if m.Kind == models.AutomationLog {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *recordingSink) has(kind models.AutomationKind, text string) bool {
	for _, m := range r.all() {
		if m.Kind == kind && m.Text == text {
			return true
		}
	}
	return false
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testDate = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.Local)

func testConfig(t *testing.T, dryRun bool) RunConfig {
	t.Helper()
	cfg, err := NewRunConfig(models.DefaultPoints(), 0, 0, 1, 0, dryRun)
	require.NoError(t, err)
	return cfg
}

func newTestEngine(t *testing.T, cfg RunConfig, opts Options) *Engine {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = fixedClock{t: testDate}
	}
	e, err := New(cfg, opts)
	require.NoError(t, err)
	e.tick = time.Millisecond
	e.clickGap = 0
	e.watchdogTimeout = time.Hour
	e.watchdogPoll = 5 * time.Millisecond
	return e
}

// stopOn sets flag the first time a log line containing substr is sent.
func stopOn(sink *recordingSink, flag *atomic.Bool, substr string) {
	sink.hook = func(m models.AutomationMessage) {
		if m.Kind == models.AutomationLog && strings.Contains(m.Text, substr) {
			flag.Store(true)
		}
	}
}

func TestNewRunConfig(t *testing.T) {
	_, err := NewRunConfig(models.DefaultPoints()[:5], 0, 0, 1, 0, false)
	assert.Error(t, err)

	cfg, err := NewRunConfig(models.DefaultPoints(), -5, -1, 0, -3, true)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TotalWaitSeconds)
	assert.Equal(t, 0, cfg.StepDelaySeconds)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 0, cfg.Step4WaitSeconds)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "Step 8", cfg.Points[5].Name)
}

func TestConfigFromSettings(t *testing.T) {
	retries := 7
	cfg, err := ConfigFromSettings(models.AutomationSettings{MaxRetries: &retries}, models.DefaultPoints())
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalWaitSeconds, cfg.TotalWaitSeconds)
	assert.Equal(t, DefaultStepDelaySeconds, cfg.StepDelaySeconds)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, DefaultStep4WaitSeconds, cfg.Step4WaitSeconds)
}

func TestNew(t *testing.T) {
	_, err := New(testConfig(t, false), Options{})
	assert.Error(t, err, "real run without injector")

	e, err := New(testConfig(t, true), Options{})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, e.watchdogTimeout)

	cfg, err := NewRunConfig(models.DefaultPoints(), 0, 0, 20, 0, true)
	require.NoError(t, err)
	e, err = New(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, e.watchdogTimeout)
}

func TestEngine_RetriesThenFails(t *testing.T) {
	testInitLogger(t)
	cfg, err := NewRunConfig(models.DefaultPoints(), 0, 0, 3, 0, false)
	require.NoError(t, err)
	inj := &mockInjector{clickErr: errors.New("no display")}
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	e := newTestEngine(t, cfg, Options{Injector: inj, Sink: sink, StopFlag: flag})

	err = e.Run(context.Background())

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "Step 1", stepErr.Point.Name)
	assert.Equal(t, "Failed: Step 1", err.Error())
	assert.Equal(t, 3, stepErr.Attempts)

	moves, clicks, typed := inj.calls()
	assert.Equal(t, 3, moves)
	assert.Equal(t, 3, clicks)
	assert.Zero(t, typed)

	assert.True(t, sink.has(models.AutomationLog, "[Step 1] Attempt 3/3"))
	assert.False(t, sink.has(models.AutomationLog, "[Step 1] Attempt 4/3"))
	assert.True(t, sink.has(models.AutomationErrorPopup, "Automation Error: Failed: Step 1"))

	msgs := sink.all()
	assert.Equal(t, models.AutomationStop, msgs[len(msgs)-1].Kind)
	assert.True(t, flag.Load())
}

func TestEngine_TypeFailureIsFatal(t *testing.T) {
	testInitLogger(t)
	inj := &mockInjector{typeErr: errors.New("keyboard gone")}
	sink := &recordingSink{}
	e := newTestEngine(t, testConfig(t, false), Options{Injector: inj, Sink: sink})

	err := e.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "type failed")
	assert.Equal(t, []string{"14-10-2026"}, inj.typed)
	assert.False(t, sink.has(models.AutomationLog, "Entered date: 14-10-2026"))
}

// runOneIteration runs until the first iteration completes and returns the log lines.
func runOneIteration(t *testing.T, dryRun bool, inj *mockInjector) []string {
	t.Helper()
	cfg, err := NewRunConfig(models.DefaultPoints(), 2, 1, 2, 1, dryRun)
	require.NoError(t, err)
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	stopOn(sink, flag, "===== Iteration 1 complete =====")

	opts := Options{Sink: sink, StopFlag: flag}
	if inj != nil {
		opts.Injector = inj
	}
	e := newTestEngine(t, cfg, opts)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, int64(1), e.Iterations())
	return sink.logs()
}

func TestEngine_DryRunIsIsomorphic(t *testing.T) {
	testInitLogger(t)

	dryInj := &mockInjector{}
	// The injector is supplied but must never be touched.
	cfg, err := NewRunConfig(models.DefaultPoints(), 2, 1, 2, 1, true)
	require.NoError(t, err)
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	stopOn(sink, flag, "===== Iteration 1 complete =====")
	e := newTestEngine(t, cfg, Options{Injector: dryInj, Sink: sink, StopFlag: flag})
	require.NoError(t, e.Run(context.Background()))
	moves, clicks, typed := dryInj.calls()
	assert.Zero(t, moves+clicks+typed, "dry run must not inject input")

	dryLogs := runOneIteration(t, true, nil)
	realLogs := runOneIteration(t, false, &mockInjector{})

	normalized := make([]string, len(dryLogs))
	for i, line := range dryLogs {
		line = strings.Replace(line, "[DRY RUN] Would click ", "Clicked ", 1)
		line = strings.Replace(line, "[DRY RUN] Would type: ", "Typed: ", 1)
		normalized[i] = line
	}
	assert.Equal(t, realLogs, normalized)
	assert.Contains(t, dryLogs, "[DRY RUN] Would click Step 8 at (2066, 1100)")
	assert.Contains(t, dryLogs, "Entered date: 14-10-2026")
	assert.Contains(t, dryLogs, "Step 6: Long wait 0h 0m")
	assert.Contains(t, dryLogs, "Long wait completed")
}

func TestEngine_IterationSequence(t *testing.T) {
	testInitLogger(t)
	logs := runOneIteration(t, true, nil)

	expected := []string{
		"===== Iteration 1 =====",
		"[Step 1] Attempt 1/2",
		"[DRY RUN] Would click Step 1 at (3514, 1640)",
		"[Step 2 (date field)] Attempt 1/2",
		"[DRY RUN] Would click Step 2 (date field) at (1775, 596)",
		"[DRY RUN] Would type: 14-10-2026",
		"Entered date: 14-10-2026",
		"[Step 3] Attempt 1/2",
		"[DRY RUN] Would click Step 3 at (1474, 1649)",
		"Step 4: Waiting 1 seconds",
		"[Step 5] Attempt 1/2",
		"[DRY RUN] Would click Step 5 at (2875, 1640)",
		"Step 6: Long wait 0h 0m",
		"Long wait completed",
		"[Step 7] Attempt 1/2",
		"[DRY RUN] Would click Step 7 at (2674, 1640)",
		"[Step 8] Attempt 1/2",
		"[DRY RUN] Would click Step 8 at (2066, 1100)",
		"===== Iteration 1 complete =====",
		"Interrupted during sleep",
	}
	assert.Equal(t, expected, logs)
}

func TestEngine_LongWaitEmitsTimer(t *testing.T) {
	testInitLogger(t)
	cfg, err := NewRunConfig(models.DefaultPoints(), 3, 0, 1, 0, true)
	require.NoError(t, err)
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	stopOn(sink, flag, "Long wait completed")
	e := newTestEngine(t, cfg, Options{Sink: sink, StopFlag: flag})

	require.NoError(t, e.Run(context.Background()))

	var remaining []int32
	for _, m := range sink.all() {
		if m.Kind == models.AutomationUpdateTimer {
			remaining = append(remaining, m.Remaining)
		}
	}
	assert.Equal(t, []int32{3, 2, 1}, remaining)
}

func TestEngine_StopAfterFirstStep(t *testing.T) {
	testInitLogger(t)
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	stopOn(sink, flag, "[DRY RUN] Would click Step 1")
	e := newTestEngine(t, testConfig(t, true), Options{Sink: sink, StopFlag: flag})

	require.NoError(t, e.Run(context.Background()))

	logs := sink.logs()
	assert.Contains(t, logs, "===== Iteration 1 =====")
	assert.Contains(t, logs, "[DRY RUN] Would click Step 1 at (3514, 1640)")
	for _, m := range sink.all() {
		for _, later := range []string{"Step 2", "Step 3", "Step 5", "Step 7", "Step 8"} {
			assert.NotContains(t, m.Text, later)
		}
	}
	msgs := sink.all()
	assert.Equal(t, models.AutomationStop, msgs[len(msgs)-1].Kind)
}

func TestEngine_StopBoundedByTick(t *testing.T) {
	testInitLogger(t)
	cfg, err := NewRunConfig(models.DefaultPoints(), 10000, 0, 1, 0, true)
	require.NoError(t, err)

	timerSeen := make(chan struct{})
	var once sync.Once
	sink := events.SinkFunc[models.AutomationMessage](func(m models.AutomationMessage) {
		if m.Kind == models.AutomationUpdateTimer {
			once.Do(func() { close(timerSeen) })
		}
	})
	flag := &atomic.Bool{}
	e := newTestEngine(t, cfg, Options{Sink: sink, StopFlag: flag})
	tick := 50 * time.Millisecond
	e.tick = tick

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case <-timerSeen:
	case <-time.After(5 * time.Second):
		t.Fatal("long wait never started")
	}
	requested := time.Now()
	e.RequestStop()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.LessOrEqual(t, time.Since(requested), tick+50*time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.True(t, e.Stopped())
}

func TestEngine_ContextCancel(t *testing.T) {
	testInitLogger(t)
	cfg, err := NewRunConfig(models.DefaultPoints(), 10000, 0, 1, 0, true)
	require.NoError(t, err)
	flag := &atomic.Bool{}
	e := newTestEngine(t, cfg, Options{StopFlag: flag})
	e.tick = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("cancel was not observed promptly")
	}
	assert.True(t, flag.Load(), "engine sets the stop flag on exit")
}

func TestEngine_WatchdogTimeout(t *testing.T) {
	testInitLogger(t)
	inj := &mockInjector{clickBlock: 300 * time.Millisecond}
	sink := &recordingSink{}
	flag := &atomic.Bool{}
	e := newTestEngine(t, testConfig(t, false), Options{Injector: inj, Sink: sink, StopFlag: flag})
	e.watchdogTimeout = 50 * time.Millisecond

	err := e.Run(context.Background())

	assert.ErrorIs(t, err, ErrWatchdogTimeout)
	assert.True(t, sink.has(models.AutomationLog, "⚠ Watchdog timeout"))
	assert.True(t, sink.has(models.AutomationStatus, "Status: Error - Timeout"))
	assert.True(t, flag.Load())
	msgs := sink.all()
	assert.Equal(t, models.AutomationStop, msgs[len(msgs)-1].Kind)
}

func TestEngine_WatchdogCancelsHungInjector(t *testing.T) {
	testInitLogger(t)
	inj := &mockInjector{hang: true}
	sink := &recordingSink{}
	e := newTestEngine(t, testConfig(t, false), Options{Injector: inj, Sink: sink})
	e.watchdogTimeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrWatchdogTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not abort the blocked click")
	}
	assert.True(t, sink.has(models.AutomationStatus, "Status: Error - Timeout"))
	_, clicks, _ := inj.calls()
	assert.Equal(t, 1, clicks)
}

func TestEngine_RequestStopCancelsHungInjector(t *testing.T) {
	testInitLogger(t)
	inj := &mockInjector{hang: true}
	e := newTestEngine(t, testConfig(t, false), Options{Injector: inj})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		_, clicks, _ := inj.calls()
		return clicks == 1
	}, time.Second, 5*time.Millisecond)
	e.RequestStop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop request did not abort the blocked click")
	}
}

func TestEngine_FailedAttemptsNotSentToConsumer(t *testing.T) {
	testInitLogger(t)
	cfg, err := NewRunConfig(models.DefaultPoints(), 0, 0, 2, 0, false)
	require.NoError(t, err)
	inj := &mockInjector{clickErr: errors.New("mouse click failed: no display")}
	sink := &recordingSink{}
	e := newTestEngine(t, cfg, Options{Injector: inj, Sink: sink})

	require.Error(t, e.Run(context.Background()))

	for _, line := range sink.logs() {
		assert.NotContains(t, line, "failed", "attempt failures stay in the log file")
	}
}

func TestEngine_RunOnce(t *testing.T) {
	testInitLogger(t)
	flag := &atomic.Bool{}
	flag.Store(true)
	e := newTestEngine(t, testConfig(t, true), Options{StopFlag: flag})

	assert.NoError(t, e.Run(context.Background()))
	assert.ErrorIs(t, e.Run(context.Background()), ErrAlreadyRun)
}
