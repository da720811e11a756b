package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/hdr-snip/domain/action"
	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

// Kinds accepted by New.
const (
	KindAuto = "auto"
	KindGL   = "gl"
	KindTk   = "tk"
)

// Options configure a Preview.
type Options struct {
	Kind      string
	Keymap    *action.Keymap
	Tolerance int
	Interval  time.Duration
}

// New returns the preview for opts.Kind. Auto prefers the GL surface and
// falls back to Tk when it cannot initialise.
func New(opts Options, logger *slog.Logger) (Preview, error) {
	if opts.Keymap == nil {
		opts.Keymap = action.DefaultKeymap()
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = selection.DefaultTolerance
	}
	tk := &tkPreview{keymap: opts.Keymap, tolerance: opts.Tolerance, interval: opts.Interval, logger: logger}
	switch opts.Kind {
	case KindTk:
		return tk, nil
	case KindGL:
		if !hasGL {
			return nil, fmt.Errorf("preview: gl surface not available on this platform")
		}
		return newGLPreview(opts, logger), nil
	case "", KindAuto:
		if !hasGL {
			return tk, nil
		}
		return &fallbackPreview{primary: newGLPreview(opts, logger), fallback: tk, logger: logger}, nil
	default:
		return nil, fmt.Errorf("preview: unknown kind %q", opts.Kind)
	}
}

// fallbackPreview retries with fallback only when primary failed to set up
// its surface; a session that started is never replayed.
type fallbackPreview struct {
	primary, fallback Preview
	logger            *slog.Logger
}

func (p *fallbackPreview) Show(ctx context.Context, frame *capture.CapturedFrame, info hdr.DisplayHdrInfo) (selection.Rect, error) {
	r, err := p.primary.Show(ctx, frame, info)
	if err == nil || !errors.Is(err, ErrInit) {
		return r, err
	}
	if p.logger != nil {
		p.logger.Warn("gl preview unavailable, using tk", "error", err)
	}
	return p.fallback.Show(ctx, frame, info)
}
