// Package relay is the consumer side of the engine and recorder mailboxes.
package relay

import (
	"sync"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/events"
	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Broadcaster fans a JSON-encodable value out to live subscribers.
type Broadcaster interface {
	Broadcast(v any)
}

// Notices accepts finished recordings for delivery.
type Notices interface {
	Enqueue(n models.RecordingNotice) (models.RecordingNotice, error)
}

// Envelope is the websocket frame for one relayed message.
type Envelope struct {
	Source     string                    `json:"source"` // "automation" or "video"
	Time       time.Time                 `json:"time"`
	Automation *models.AutomationMessage `json:"automation,omitempty"`
	Video      *models.VideoMessage      `json:"video,omitempty"`
}

// Options wires the relay. Any field may be nil.
type Options struct {
	Automation  *events.Mailbox[models.AutomationMessage]
	Video       *events.Mailbox[models.VideoMessage]
	Broadcaster Broadcaster
	Notices     Notices
	Now         func() time.Time
}

// Relay drains both mailboxes on a single goroutine.
type Relay struct {
	board      *Board
	automation *events.Mailbox[models.AutomationMessage]
	video      *events.Mailbox[models.VideoMessage]
	hub        Broadcaster
	notices    Notices
	now        func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a relay over board.
func New(board *Board, opts Options) *Relay {
	if opts.Automation == nil {
		opts.Automation = events.NewMailbox[models.AutomationMessage]()
	}
	if opts.Video == nil {
		opts.Video = events.NewMailbox[models.VideoMessage]()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Relay{
		board:      board,
		automation: opts.Automation,
		video:      opts.Video,
		hub:        opts.Broadcaster,
		notices:    opts.Notices,
		now:        opts.Now,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the drain loop.
func (r *Relay) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop ends the drain loop after handling whatever is already queued. It is idempotent.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Relay) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.automation.Ready():
			r.drainAutomation()
		case <-r.video.Ready():
			r.drainVideo()
		case <-r.stopCh:
			r.drainAutomation()
			r.drainVideo()
			return
		}
	}
}

func (r *Relay) drainAutomation() {
	for _, msg := range r.automation.Drain() {
		r.handleAutomation(msg)
	}
}

func (r *Relay) drainVideo() {
	for _, msg := range r.video.Drain() {
		r.handleVideo(msg)
	}
}

func (r *Relay) handleAutomation(msg models.AutomationMessage) {
	l := logger.L().With("component", "automation")
	switch msg.Kind {
	case models.AutomationLog, models.AutomationStatus:
		l.Info(msg.Text)
	case models.AutomationErrorPopup:
		l.Error(msg.Text)
	case models.AutomationStop:
		l.Info("Automation stopped")
	case models.AutomationUpdateTimer:
		// Once per second; only the board and websocket clients care.
	}

	r.board.ApplyAutomation(msg)
	r.broadcast(Envelope{Source: "automation", Automation: &msg})
}

func (r *Relay) handleVideo(msg models.VideoMessage) {
	l := logger.L().With("component", "video", "camera", msg.Camera)
	switch msg.Kind {
	case models.VideoLog, models.VideoStatus:
		l.Info(msg.Text)
	case models.VideoError:
		l.Error(msg.Text)
	case models.VideoRecordingStarted:
		l.Info("Recording started", "file", msg.Filename)
	case models.VideoRecordingStopped:
		l.Info("Recording finished", "path", msg.Path, "duration_s", msg.DurationSeconds, "frames", msg.Frames)
		r.enqueue(msg)
	case models.VideoFramesCaptured:
		// Too frequent to log.
	}

	r.broadcast(Envelope{Source: "video", Video: &msg})
}

func (r *Relay) enqueue(msg models.VideoMessage) {
	if r.notices == nil || msg.Path == "" {
		return
	}
	n, err := r.notices.Enqueue(models.RecordingNotice{
		Camera:          msg.Camera,
		Path:            msg.Path,
		DurationSeconds: msg.DurationSeconds,
		FinishedAt:      r.now(),
	})
	if err != nil {
		logger.L().Warn("Dropping recording notice", "camera", msg.Camera, "path", msg.Path, "error", err)
		return
	}
	logger.L().Debug("Recording notice queued", "notice_id", n.ID)
}

func (r *Relay) broadcast(env Envelope) {
	if r.hub == nil {
		return
	}
	env.Time = r.now()
	r.hub.Broadcast(env)
}
