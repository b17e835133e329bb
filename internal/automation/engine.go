// Package automation runs the fixed click sequence under watchdog supervision.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/events"
	"github.com/SecCamCloud/seccamcloud/internal/input"
	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/internal/retry"
	"github.com/SecCamCloud/seccamcloud/internal/watchdog"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Fixed pauses, in ticks.
const (
	dateSettleTicks = 2
	longWaitSettle  = 2
	cooldownTicks   = 5
	minWatchdogSecs = 30
)

// Options carries the engine's collaborators. Only Injector is required outside dry-run.
type Options struct {
	Injector input.Injector
	Clock    Clock
	Sink     events.Sink[models.AutomationMessage]
	StopFlag *atomic.Bool // Shared with whoever may request a stop; created if nil
}

// Engine executes RunConfig's sequence until interrupted or a step fails.
type Engine struct {
	cfg      RunConfig
	injector input.Injector
	clock    Clock
	sink     events.Sink[models.AutomationMessage]
	stop     *atomic.Bool

	// Timing knobs, overridden in tests.
	tick            time.Duration
	clickGap        time.Duration
	watchdogTimeout time.Duration
	watchdogPoll    time.Duration

	ran        atomic.Bool
	timedOut   atomic.Bool
	iterations atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc // Aborts the running sequence, including a blocked injector call
}

// New creates an engine. It fails when a real run has no injector.
func New(cfg RunConfig, opts Options) (*Engine, error) {
	if opts.Injector == nil && !cfg.DryRun {
		return nil, errors.New("automation requires an input injector unless dry_run is set")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard[models.AutomationMessage]()
	}
	if opts.StopFlag == nil {
		opts.StopFlag = &atomic.Bool{}
	}

	return &Engine{
		cfg:             cfg,
		injector:        opts.Injector,
		clock:           opts.Clock,
		sink:            opts.Sink,
		stop:            opts.StopFlag,
		tick:            time.Second,
		clickGap:        50 * time.Millisecond,
		watchdogTimeout: time.Duration(max(3*cfg.MaxRetries, minWatchdogSecs)) * time.Second,
		watchdogPoll:    watchdog.PollInterval,
	}, nil
}

// RequestStop sets the shared stop flag and cancels any input event in flight. The
// running loop observes it within one tick.
func (e *Engine) RequestStop() {
	e.stop.Store(true)
	e.abort()
}

func (e *Engine) abort() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stopped reports whether the stop flag is set.
func (e *Engine) Stopped() bool { return e.stop.Load() }

// Iterations returns the number of fully completed iterations.
func (e *Engine) Iterations() int64 { return e.iterations.Load() }

// Run executes the sequence on the calling goroutine until ctx is cancelled, the stop
// flag is set, or a step fails. An interrupted run returns nil. Whatever the outcome,
// Run sets the stop flag and emits a final Stop message. An engine runs only once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	l := logger.L().With("component", "automation")
	l.Info("Automation started", "dry_run", e.cfg.DryRun, "max_retries", e.cfg.MaxRetries,
		"total_wait_seconds", e.cfg.TotalWaitSeconds)
	e.status("Status: Running")

	wd := watchdog.New(e.watchdogTimeout, e.onWatchdogTimeout, watchdog.WithPollInterval(e.watchdogPoll))
	err := e.loop(ctx, wd)
	wd.Stop()

	if errors.Is(err, errInterrupted) {
		err = nil
	}
	if err != nil {
		l.Error("Automation error", "error", err)
		e.errorPopup("Automation Error: " + err.Error())
	} else if e.timedOut.Load() {
		err = ErrWatchdogTimeout
	}

	e.stop.Store(true)
	e.sink.Send(models.AutomationStopMsg())
	l.Info("Automation stopped", "iterations", e.iterations.Load())
	return err
}

func (e *Engine) onWatchdogTimeout() {
	logger.L().Error("Watchdog timeout - automation unresponsive")
	e.timedOut.Store(true)
	e.sink.Send(models.AutomationLogMsg("⚠ Watchdog timeout"))
	e.status("Status: Error - Timeout")
	e.stop.Store(true)
	e.abort()
}

func (e *Engine) loop(ctx context.Context, wd *watchdog.Timer) error {
	p := e.cfg.Points

	for iteration := 1; e.running(ctx); iteration++ {
		e.log(fmt.Sprintf("===== Iteration %d =====", iteration))

		if err := e.clickStep(ctx, wd, p[0]); err != nil {
			return err
		}

		if err := e.clickStep(ctx, wd, p[1]); err != nil {
			return err
		}
		date := e.clock.Now().Format("02-01-2006")
		if err := e.typeText(ctx, date); err != nil {
			return err
		}
		e.log("Entered date: " + date)
		if !e.sleep(ctx, dateSettleTicks) {
			return errInterrupted
		}

		if err := e.clickStep(ctx, wd, p[2]); err != nil {
			return err
		}
		e.log(fmt.Sprintf("Step 4: Waiting %d seconds", e.cfg.Step4WaitSeconds))
		if !e.unsupervisedSleep(ctx, wd, e.cfg.Step4WaitSeconds) {
			return errInterrupted
		}

		if err := e.clickStep(ctx, wd, p[3]); err != nil {
			return err
		}
		if !e.longWait(ctx, wd) {
			return errInterrupted
		}
		if !e.sleep(ctx, longWaitSettle) {
			return errInterrupted
		}

		if err := e.clickStep(ctx, wd, p[4]); err != nil {
			return err
		}
		if err := e.clickStep(ctx, wd, p[5]); err != nil {
			return err
		}

		e.iterations.Add(1)
		e.log(fmt.Sprintf("===== Iteration %d complete =====", iteration))

		if !e.unsupervisedSleep(ctx, wd, cooldownTicks) {
			return errInterrupted
		}
	}
	return nil
}

// clickStep clicks one point with retries. The watchdog is re-armed before the
// first attempt and paused for the post-click step delay.
func (e *Engine) clickStep(ctx context.Context, wd *watchdog.Timer, point models.ClickPoint) error {
	wd.Reset()

	var lastErr error
	policy := retry.Policy{MaxAttempts: e.cfg.MaxRetries, NoDelay: true}
	err := retry.Do(ctx, "click "+point.Name, policy, func(ctx context.Context, attempt int) error {
		if !e.running(ctx) {
			return retry.Abort(errInterrupted)
		}
		e.log(fmt.Sprintf("[%s] Attempt %d/%d", point.Name, attempt, e.cfg.MaxRetries))
		if err := e.click(ctx, point); err != nil {
			lastErr = err
			return err
		}
		return nil
	})

	switch {
	case errors.Is(err, errInterrupted), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errInterrupted
	case err != nil && !e.running(ctx):
		return errInterrupted
	case err != nil:
		logger.L().Error("Click step failed", "point", point.Name, "attempts", e.cfg.MaxRetries, "error", err)
		return &StepError{Point: point, Attempts: e.cfg.MaxRetries, Err: lastErr}
	}

	if !e.unsupervisedSleep(ctx, wd, e.cfg.StepDelaySeconds) {
		return errInterrupted
	}
	return nil
}

// click moves and clicks once. A failed attempt goes to the log only; the consumer
// hears about the step when its retries are exhausted.
func (e *Engine) click(ctx context.Context, point models.ClickPoint) error {
	if e.cfg.DryRun {
		e.log(fmt.Sprintf("[DRY RUN] Would click %s at (%d, %d)", point.Name, point.X, point.Y))
		return nil
	}

	if err := e.injector.MoveCursor(ctx, point.X, point.Y); err != nil {
		logger.L().Warn("Click attempt failed", "component", "automation", "point", point.Name, "error", err)
		return err
	}
	t := time.NewTimer(e.clickGap)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
	if err := e.injector.Click(ctx, input.ButtonLeft); err != nil {
		logger.L().Warn("Click attempt failed", "component", "automation", "point", point.Name, "error", err)
		return err
	}
	e.log(fmt.Sprintf("Clicked %s at (%d, %d)", point.Name, point.X, point.Y))
	return nil
}

func (e *Engine) typeText(ctx context.Context, text string) error {
	if e.cfg.DryRun {
		e.log("[DRY RUN] Would type: " + text)
		return nil
	}
	if err := e.injector.TypeText(ctx, text); err != nil {
		if !e.running(ctx) {
			return errInterrupted
		}
		return fmt.Errorf("type failed: %w", err)
	}
	e.log("Typed: " + text)
	return nil
}

// longWait counts TotalWaitSeconds down with the watchdog disarmed, reporting the
// remaining time every tick.
func (e *Engine) longWait(ctx context.Context, wd *watchdog.Timer) bool {
	total := e.cfg.TotalWaitSeconds
	e.log(fmt.Sprintf("Step 6: Long wait %dh %dm", total/3600, (total%3600)/60))
	wd.Cancel()

	for remaining := total; remaining > 0; remaining-- {
		if !e.running(ctx) {
			return false
		}
		e.sink.Send(models.AutomationTimerMsg(int32(remaining)))
		if !e.pause(ctx) {
			return false
		}
	}
	if !e.running(ctx) {
		return false
	}

	e.log("Long wait completed")
	wd.Reset()
	return true
}

// unsupervisedSleep waits with the watchdog disarmed and re-arms it afterwards.
func (e *Engine) unsupervisedSleep(ctx context.Context, wd *watchdog.Timer, ticks int) bool {
	wd.Cancel()
	if !e.sleep(ctx, ticks) {
		return false
	}
	wd.Reset()
	return true
}

// sleep waits for the given number of ticks, checking liveness before each one.
func (e *Engine) sleep(ctx context.Context, ticks int) bool {
	for i := 0; i < ticks; i++ {
		if !e.running(ctx) || !e.pause(ctx) {
			e.log("Interrupted during sleep")
			return false
		}
	}
	return true
}

func (e *Engine) pause(ctx context.Context) bool {
	t := time.NewTimer(e.tick)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) running(ctx context.Context) bool {
	if e.stop.Load() {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

func (e *Engine) log(text string) {
	logger.L().Info(text, "component", "automation")
	e.sink.Send(models.AutomationLogMsg(text))
}

func (e *Engine) status(text string) {
	e.sink.Send(models.AutomationStatusMsg(text))
}

func (e *Engine) errorPopup(text string) {
	e.sink.Send(models.AutomationErrorMsg(text))
}
