//go:build windows

package preview

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

const hasGL = true

type glPreview struct {
	opts   Options
	logger *slog.Logger
}

func newGLPreview(opts Options, logger *slog.Logger) Preview {
	return &glPreview{opts: opts, logger: logger}
}

// Show pins the calling goroutine to its OS thread: the window, its message
// queue and the EGL context all belong to the creating thread.
func (p *glPreview) Show(ctx context.Context, frame *capture.CapturedFrame, info hdr.DisplayHdrInfo) (selection.Rect, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	surface, err := newGLSurface(frame, p.opts.Keymap, p.logger)
	if err != nil {
		return selection.Rect{}, err
	}
	loop := NewLoop(surface, selection.NewMachine(p.opts.Tolerance, p.logger), info, p.logger)
	if p.opts.Interval > 0 {
		loop.Interval = p.opts.Interval
	}
	return loop.Run(ctx), nil
}
