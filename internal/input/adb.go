package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// longPressMillis is how long a right click is held on a touch screen.
const longPressMillis = 600

// ADB drives an Android device through "adb shell input". Touch screens have no
// cursor, so MoveCursor only records the position the next Click taps.
type ADB struct {
	path   string
	device string
	runner Runner

	mu   sync.Mutex
	x, y int32
}

// NewADB returns an injector for the device with the given serial. An empty serial
// lets adb pick the only connected device.
func NewADB(path, device string, runner Runner) *ADB {
	if path == "" {
		path = "adb"
	}
	return &ADB{path: path, device: device, runner: runner}
}

func (a *ADB) MoveCursor(_ context.Context, x, y int32) error {
	a.mu.Lock()
	a.x, a.y = x, y
	a.mu.Unlock()
	return nil
}

func (a *ADB) Click(ctx context.Context, b Button) error {
	a.mu.Lock()
	x, y := itoa(a.x), itoa(a.y)
	a.mu.Unlock()

	switch b {
	case ButtonLeft:
		if err := a.shell(ctx, "input", "tap", x, y); err != nil {
			return fmt.Errorf("tap failed: %w", err)
		}
	case ButtonRight:
		if err := a.shell(ctx, "input", "swipe", x, y, x, y, fmt.Sprintf("%d", longPressMillis)); err != nil {
			return fmt.Errorf("long press failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported button %s", b)
	}
	return nil
}

func (a *ADB) TypeText(ctx context.Context, text string) error {
	// "input text" treats %s as a space.
	escaped := strings.ReplaceAll(text, " ", "%s")
	if err := a.shell(ctx, "input", "text", escaped); err != nil {
		return fmt.Errorf("text input failed: %w", err)
	}
	return nil
}

func (a *ADB) shell(ctx context.Context, args ...string) error {
	full := make([]string, 0, len(args)+3)
	if a.device != "" {
		full = append(full, "-s", a.device)
	}
	full = append(full, "shell")
	full = append(full, args...)
	return a.runner.Run(ctx, a.path, full...)
}
