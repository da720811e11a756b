package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/hdr-snip/domain/compose"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

// FrameInterval is the bounded yield between loop iterations.
const FrameInterval = 16 * time.Millisecond

// Loop relays surface input into a selection machine and re-renders every
// iteration. It is single threaded and owns the surface until Close.
type Loop struct {
	Surface  Surface
	Machine  *selection.Machine
	Info     hdr.DisplayHdrInfo
	Interval time.Duration
	Logger   *slog.Logger

	cursor    selection.CursorHint
	cursorSet bool
	teardown  sync.Once
}

// NewLoop returns a loop with an empty selection.
func NewLoop(s Surface, m *selection.Machine, info hdr.DisplayHdrInfo, logger *slog.Logger) *Loop {
	return &Loop{Surface: s, Machine: m, Info: info, Interval: FrameInterval, Logger: logger}
}

// Step runs one iteration: pump, dispatch, render, present. It reports done
// once the session ended; nothing is rendered in that iteration.
func (l *Loop) Step() bool {
	for _, ev := range l.Surface.PumpEvents() {
		l.dispatch(ev)
	}
	if l.Surface.Closed() {
		l.Machine.Destroy()
	}
	if l.Machine.Done() {
		return true
	}
	w, h := l.Surface.Size()
	sel := l.Machine.Rect()
	if err := l.Surface.Render(sel, compose.ComputeUniforms(sel, w, h, l.Info)); err != nil {
		l.debug("preview render", err)
	}
	if err := l.Surface.Present(); err != nil {
		l.debug("preview present", err)
	}
	return false
}

// Run steps until the session ends or ctx is cancelled, then tears the
// surface down. Cancellation of ctx cancels the session.
func (l *Loop) Run(ctx context.Context) selection.Rect {
	defer l.Close()
	interval := l.Interval
	if interval <= 0 {
		interval = FrameInterval
	}
	for !l.Step() {
		select {
		case <-ctx.Done():
			l.Machine.Destroy()
			return l.Machine.Result()
		case <-time.After(interval):
		}
	}
	return l.Machine.Result()
}

// Close releases the surface exactly once.
func (l *Loop) Close() {
	l.teardown.Do(func() {
		if l.Surface != nil {
			l.Surface.Close()
		}
		if l.Logger != nil {
			r := l.Machine.Result()
			l.Logger.Info("selection session ended", "outcome", l.Machine.Outcome().String(),
				"x", r.Left(), "y", r.Top(), "w", r.Width(), "h", r.Height())
		}
	})
}

func (l *Loop) dispatch(ev Event) {
	m := l.Machine
	switch ev.Kind {
	case EventPointerDown:
		m.PointerDown(ev.X, ev.Y)
		l.updateCursor(ev.X, ev.Y)
	case EventPointerMove:
		m.PointerMove(ev.X, ev.Y)
		l.updateCursor(ev.X, ev.Y)
	case EventPointerUp:
		m.PointerUp()
		l.updateCursor(ev.X, ev.Y)
	case EventSecondaryUp:
		m.SecondaryUp()
	case EventKey:
		m.Key(ev.Key)
	case EventClose:
		m.Destroy()
	}
}

func (l *Loop) updateCursor(x, y int) {
	c := l.Machine.HoverCursor(x, y)
	if l.cursorSet && c == l.cursor {
		return
	}
	l.cursor, l.cursorSet = c, true
	l.Surface.SetCursor(c)
}

func (l *Loop) debug(msg string, err error) {
	if l.Logger != nil {
		l.Logger.Debug(msg, "error", err)
	}
}
