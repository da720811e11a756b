package preview

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/soocke/hdr-snip/domain/compose"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

var discardLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

// fakeSurface replays one batch of events per PumpEvents call.
type fakeSurface struct {
	w, h       int
	batches    [][]Event
	closedExt  bool
	renders    []compose.Uniforms
	rects      []selection.Rect
	presents   int
	cursors    []selection.CursorHint
	closeCalls int
	renderErr  error
	panicOn    int
}

func (f *fakeSurface) Size() (int, int) { return f.w, f.h }
func (f *fakeSurface) PumpEvents() []Event {
	if len(f.batches) == 0 {
		return nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b
}
func (f *fakeSurface) Render(sel selection.Rect, u compose.Uniforms) error {
	if f.panicOn > 0 && len(f.renders)+1 == f.panicOn {
		panic("render blew up")
	}
	f.renders = append(f.renders, u)
	f.rects = append(f.rects, sel)
	return f.renderErr
}
func (f *fakeSurface) Present() error                   { f.presents++; return nil }
func (f *fakeSurface) SetCursor(c selection.CursorHint) { f.cursors = append(f.cursors, c) }
func (f *fakeSurface) Closed() bool                     { return f.closedExt }
func (f *fakeSurface) Close()                           { f.closeCalls++ }

func newTestLoop(s *fakeSurface) *Loop {
	l := NewLoop(s, selection.NewMachine(selection.DefaultTolerance, discardLogger), hdr.Fallback(), discardLogger)
	l.Interval = time.Millisecond
	return l
}

func TestLoop_DragThenConfirm(t *testing.T) {
	s := &fakeSurface{w: 200, h: 200, batches: [][]Event{
		{{Kind: EventPointerDown, X: 50, Y: 50}},
		{{Kind: EventPointerMove, X: 150, Y: 120}, {Kind: EventPointerUp, X: 150, Y: 120}},
		nil,
		{{Kind: EventSecondaryUp, X: 150, Y: 120}},
	}}
	l := newTestLoop(s)
	r := l.Run(context.Background())

	if r.Left() != 50 || r.Top() != 50 || r.Right() != 150 || r.Bottom() != 120 {
		t.Fatalf("unexpected result %+v", r)
	}
	if len(s.renders) != 3 || s.presents != 3 {
		t.Fatalf("expected a render+present per running step, got renders=%d presents=%d", len(s.renders), s.presents)
	}
	if s.renders[0].HasSelection {
		t.Fatalf("first frame should have no selection")
	}
	last := s.renders[2]
	if !last.HasSelection || last.Selection != [4]float32{0.25, 0.25, 0.75, 0.6} {
		t.Fatalf("unexpected uniforms %+v", last)
	}
	if s.closeCalls != 1 {
		t.Fatalf("surface closed %d times", s.closeCalls)
	}
	if len(s.cursors) == 0 || s.cursors[0] != selection.CursorCross {
		t.Fatalf("expected cross cursor first, got %v", s.cursors)
	}
}

func TestLoop_CancelPaths(t *testing.T) {
	cases := []struct {
		name string
		ev   []Event
		ext  bool
	}{
		{"escape", []Event{{Kind: EventKey, Key: selection.KeyCancel}}, false},
		{"close event", []Event{{Kind: EventClose}}, false},
		{"destroyed", nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &fakeSurface{w: 100, h: 100, batches: [][]Event{
				{{Kind: EventPointerDown, X: 10, Y: 10}, {Kind: EventPointerMove, X: 60, Y: 60}},
				c.ev,
			}}
			l := newTestLoop(s)
			if l.Step() {
				t.Fatalf("first step should not finish")
			}
			s.closedExt = c.ext
			if !l.Step() {
				t.Fatalf("second step should finish")
			}
			if r := l.Machine.Result(); r.IsValid() {
				t.Fatalf("cancel must yield invalid rect, got %+v", r)
			}
			l.Close()
			l.Close()
			if s.closeCalls != 1 {
				t.Fatalf("teardown ran %d times", s.closeCalls)
			}
		})
	}
}

func TestLoop_ContextCancelEndsSession(t *testing.T) {
	s := &fakeSurface{w: 100, h: 100}
	l := newTestLoop(s)
	l.Interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := l.Run(ctx); r.IsValid() {
		t.Fatalf("expected invalid rect, got %+v", r)
	}
	if l.Machine.Outcome() != selection.OutcomeCancelled || s.closeCalls != 1 {
		t.Fatalf("outcome=%v closes=%d", l.Machine.Outcome(), s.closeCalls)
	}
}

func TestLoop_RenderErrorsDoNotStopLoop(t *testing.T) {
	s := &fakeSurface{w: 100, h: 100, renderErr: errors.New("lost context"), batches: [][]Event{
		nil, nil, {{Kind: EventKey, Key: selection.KeyAccept}},
	}}
	l := newTestLoop(s)
	l.Run(context.Background())
	if s.presents != 2 || l.Machine.Outcome() != selection.OutcomeConfirmed {
		t.Fatalf("presents=%d outcome=%v", s.presents, l.Machine.Outcome())
	}
}

func TestLoop_TeardownRunsOnPanic(t *testing.T) {
	s := &fakeSurface{w: 100, h: 100, panicOn: 2}
	l := newTestLoop(s)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic")
			}
		}()
		l.Run(context.Background())
	}()
	if s.closeCalls != 1 {
		t.Fatalf("teardown should run once on panic, ran %d", s.closeCalls)
	}
}

func TestLoop_CursorOnlySetOnChange(t *testing.T) {
	s := &fakeSurface{w: 100, h: 100, batches: [][]Event{
		{{Kind: EventPointerMove, X: 5, Y: 5}, {Kind: EventPointerMove, X: 6, Y: 6}, {Kind: EventPointerMove, X: 7, Y: 7}},
	}}
	l := newTestLoop(s)
	l.Step()
	if len(s.cursors) != 1 {
		t.Fatalf("expected one cursor update, got %v", s.cursors)
	}
}

func TestEventKindString(t *testing.T) {
	if EventSecondaryUp.String() != "secondary_up" || EventKind(99).String() != "unknown" {
		t.Fatalf("unexpected names")
	}
}
