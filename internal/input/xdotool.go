package input

import (
	"context"
	"fmt"
	"strconv"
)

// XDoTool drives an X11 desktop through the xdotool binary.
type XDoTool struct {
	path   string
	runner Runner
}

// NewXDoTool returns an injector that shells out to xdotool. An empty path means "xdotool" on PATH.
func NewXDoTool(path string, runner Runner) *XDoTool {
	if path == "" {
		path = "xdotool"
	}
	return &XDoTool{path: path, runner: runner}
}

func (x *XDoTool) MoveCursor(ctx context.Context, px, py int32) error {
	if err := x.runner.Run(ctx, x.path, "mousemove", "--sync", itoa(px), itoa(py)); err != nil {
		return fmt.Errorf("mouse move failed: %w", err)
	}
	return nil
}

func (x *XDoTool) Click(ctx context.Context, b Button) error {
	var code string
	switch b {
	case ButtonLeft:
		code = "1"
	case ButtonMiddle:
		code = "2"
	case ButtonRight:
		code = "3"
	default:
		return fmt.Errorf("unsupported button %s", b)
	}
	if err := x.runner.Run(ctx, x.path, "click", code); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (x *XDoTool) TypeText(ctx context.Context, text string) error {
	if err := x.runner.Run(ctx, x.path, "type", "--delay", "50", "--", text); err != nil {
		return fmt.Errorf("text input failed: %w", err)
	}
	return nil
}

func itoa(v int32) string { return strconv.FormatInt(int64(v), 10) }
