// Package input injects synthetic pointer and keyboard events into the system under automation.
package input

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// Button is a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Injector moves the pointer, clicks and types. Coordinates are absolute screen pixels.
// Cancelling ctx abandons an event that has not completed.
type Injector interface {
	MoveCursor(ctx context.Context, x, y int32) error
	Click(ctx context.Context, b Button) error
	TypeText(ctx context.Context, text string) error
}

// Runner executes an external command and waits for it to finish or for ctx to be done.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. A failing command's stderr is folded into the error;
// a command killed by ctx reports the context error.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// New builds the injector selected by settings. An empty type selects xdotool.
func New(settings models.InjectorSettings, runner Runner) (Injector, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch strings.ToLower(settings.Type) {
	case "", "xdotool":
		return NewXDoTool(settings.Path, runner), nil
	case "adb":
		return NewADB(settings.Path, settings.Device, runner), nil
	default:
		return nil, fmt.Errorf("unknown injector type '%s'", settings.Type)
	}
}
