package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/automation"
	"github.com/SecCamCloud/seccamcloud/internal/config"
	"github.com/SecCamCloud/seccamcloud/internal/events"
	"github.com/SecCamCloud/seccamcloud/internal/input"
	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/internal/notify"
	"github.com/SecCamCloud/seccamcloud/internal/queue"
	"github.com/SecCamCloud/seccamcloud/internal/relay"
	"github.com/SecCamCloud/seccamcloud/internal/server"
	"github.com/SecCamCloud/seccamcloud/internal/video"
	"github.com/SecCamCloud/seccamcloud/internal/worker"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

const shutdownTimeout = 30 * time.Second

// runForeground contains the main application logic for running SecCamCloud in the foreground.
// It's called by the 'start' command's Run function.
func runForeground(configPath string, opts runOptions) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Application, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.L()
	log.Info("SecCamCloud running in foreground...")

	pidFilePath := cfg.Application.PIDFilePath
	if pidFilePath != "" {
		if err := acquirePIDFile(pidFilePath); err != nil {
			log.Error("Cannot write PID file", "path", pidFilePath, "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v. Is SecCamCloud already running?\n", err)
			os.Exit(1)
		}
		log.Info("Wrote PID file", "path", pidFilePath, "pid", os.Getpid())
		defer func() {
			log.Info("Removing PID file on exit", "path", pidFilePath)
			_ = os.Remove(pidFilePath)
		}()
	}

	d, err := newDaemon(cfg, opts)
	if err != nil {
		log.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}
	if err := d.start(); err != nil {
		log.Error("Failed to start services", "error", err)
		d.shutdown(context.Background())
		os.Exit(1)
	}
	log.Info("All services started successfully")

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopChan
	log.Info("Received shutdown signal", "signal", sig.String())

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	d.shutdown(shutdownCtx)
	log.Info("SecCamCloud shut down gracefully")
}

// daemon owns every long-running service of a foreground run.
type daemon struct {
	cfg *models.Config
	log *slog.Logger

	automationBox *events.Mailbox[models.AutomationMessage]
	videoBox      *events.Mailbox[models.VideoMessage]

	engine     *automation.Engine
	engineStop context.CancelFunc
	engineDone chan struct{}

	cameras    *video.MultiRecorder
	board      *relay.Board
	relay      *relay.Relay
	notices    *queue.NoticeQueue
	pool       *worker.Pool
	hub        *server.Hub
	httpServer *server.HTTPServer
}

// newDaemon builds the services described by cfg without starting any of them.
func newDaemon(cfg *models.Config, opts runOptions) (*daemon, error) {
	d := &daemon{
		cfg:           cfg,
		log:           logger.L(),
		automationBox: events.NewMailbox[models.AutomationMessage](),
		videoBox:      events.NewMailbox[models.VideoMessage](),
	}

	automationEnabled := cfg.Automation.Enabled == nil || *cfg.Automation.Enabled
	if automationEnabled && !opts.noAutomation {
		engine, err := d.buildEngine(opts.dryRun)
		if err != nil {
			return nil, err
		}
		d.engine = engine
	}

	if !opts.noRecording && len(cfg.Cameras) > 0 {
		cameras, err := d.buildCameras()
		if err != nil {
			return nil, err
		}
		d.cameras = cameras
	}

	if cfg.Notifier.URL != "" {
		d.notices = queue.NewNoticeQueue(config.DefaultNotifierQueueSize, cfg.Notifier.QueuePersistPath)
		webhook := notify.NewWebhook(cfg.Notifier.URL, cfg.Notifier.MaxRetries)
		d.pool = worker.NewPool(cfg.Notifier.Concurrency, d.notices, webhook)
	}

	var cameras relay.Cameras
	if d.cameras != nil {
		cameras = d.cameras
	}
	d.board = relay.NewBoard(cameras)

	relayOpts := relay.Options{Automation: d.automationBox, Video: d.videoBox}
	if d.notices != nil {
		relayOpts.Notices = d.notices
	}
	if cfg.Monitor.Addr != "" {
		d.hub = server.NewHub()
		relayOpts.Broadcaster = d.hub
		var stopper server.Stopper
		if d.engine != nil {
			stopper = d.engine
		}
		d.httpServer = server.NewHTTPServer(cfg.Monitor.Addr, d.board, stopper, d.hub)
	}
	d.relay = relay.New(d.board, relayOpts)
	return d, nil
}

func (d *daemon) buildEngine(forceDryRun bool) (*automation.Engine, error) {
	settings := d.cfg.Automation
	settings.DryRun = settings.DryRun || forceDryRun

	points := config.LoadPoints(settings.PointsFile)
	runCfg, err := automation.ConfigFromSettings(settings, points)
	if err != nil {
		return nil, fmt.Errorf("invalid automation config: %w", err)
	}

	opts := automation.Options{Sink: d.automationBox}
	if !runCfg.DryRun {
		injector, err := input.New(settings.Injector, input.ExecRunner{})
		if err != nil {
			return nil, fmt.Errorf("failed to create input injector: %w", err)
		}
		opts.Injector = injector
	}
	return automation.New(runCfg, opts)
}

func (d *daemon) buildCameras() (*video.MultiRecorder, error) {
	videoCfg, err := video.ConfigFromSettings(d.cfg.Video)
	if err != nil {
		return nil, fmt.Errorf("invalid video config: %w", err)
	}
	backend := video.NewFFmpegBackend(d.cfg.Video.FFmpegPath)
	cameras := video.NewMultiRecorder(video.RecorderOptions{Backend: backend, Sink: d.videoBox})
	for _, c := range d.cfg.Cameras {
		info, err := video.CameraFromConfig(c)
		if err != nil {
			return nil, err
		}
		cameras.AddCamera(info, videoCfg)
	}
	return cameras, nil
}

// start brings services up in dependency order: sinks before producers.
func (d *daemon) start() error {
	if d.notices != nil {
		if err := d.notices.Start(); err != nil {
			return fmt.Errorf("failed to start notice queue: %w", err)
		}
		d.pool.Start()
	}
	d.relay.Start()

	if d.httpServer != nil {
		go d.hub.Run()
		if err := d.httpServer.Start(); err != nil {
			return err
		}
	}

	if d.cameras != nil {
		// One bad camera must not keep the others or the automation down.
		if err := d.cameras.StartAll(); err != nil {
			d.log.Warn("Some cameras did not start", "error", err)
		}
		d.log.Info("Camera recording started", "recording", d.cameras.RecordingCount(), "configured", len(d.cfg.Cameras))
	}

	if d.engine != nil {
		ctx, cancel := context.WithCancel(context.Background())
		d.engineStop = cancel
		d.engineDone = make(chan struct{})
		go func() {
			defer close(d.engineDone)
			err := d.engine.Run(ctx)
			switch {
			case err == nil:
				d.log.Info("Automation finished", "iterations", d.engine.Iterations())
			case errors.Is(err, automation.ErrWatchdogTimeout):
				d.log.Error("Automation stopped by watchdog", "iterations", d.engine.Iterations())
			default:
				d.log.Error("Automation failed", "error", err, "iterations", d.engine.Iterations())
			}
		}()
	}
	return nil
}

// shutdown stops producers first so their final messages still reach the relay,
// then the relay, then the notifier.
func (d *daemon) shutdown(ctx context.Context) {
	d.log.Info("Initiating graceful shutdown...")

	if d.engine != nil && d.engineStop != nil {
		d.engine.RequestStop()
		d.engineStop()
		select {
		case <-d.engineDone:
		case <-ctx.Done():
			d.log.Warn("Timed out waiting for automation to stop")
		}
	}
	if d.cameras != nil {
		d.cameras.Close()
	}
	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			d.log.Error("Error stopping monitor server", "error", err)
		}
	}

	d.relay.Stop()
	d.automationBox.Close()
	d.videoBox.Close()

	if d.notices != nil {
		d.pool.Stop()
		if err := d.notices.Stop(); err != nil {
			d.log.Error("Error stopping notice queue", "error", err)
		}
	}
}
