package preview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/soocke/hdr-snip/domain/action"
	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/compose"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
	"github.com/soocke/hdr-snip/ui/images"

	tk "modernc.org/tk9.0"
)

// tkCursors maps cursor hints to Tk cursor names.
var tkCursors = map[selection.CursorHint]string{
	selection.CursorCross:    "crosshair",
	selection.CursorSizeNWSE: "size_nw_se",
	selection.CursorSizeNESW: "size_ne_sw",
	selection.CursorSizeNS:   "sb_v_double_arrow",
	selection.CursorSizeWE:   "sb_h_double_arrow",
	selection.CursorSizeAll:  "fleur",
}

// tkSurface is the software fallback. The frame is tone-mapped to 8-bit
// sRGB once; each render composites the cached layers and swaps the photo
// shown by a fullscreen label. HDR highlights are clipped.
type tkSurface struct {
	logger *slog.Logger
	keymap *action.Keymap
	layers compose.Layers
	w, h   int

	label     *tk.LabelWidget
	photo     *tk.Img
	shown     selection.Rect
	hasShown  bool
	pending   *tk.Img
	events    []Event
	closed    bool
	destroyed bool
}

var _ Surface = (*tkSurface)(nil)

func newTkSurface(frame *capture.CapturedFrame, info hdr.DisplayHdrInfo, keymap *action.Keymap, logger *slog.Logger) (*tkSurface, error) {
	w, h := int(frame.Metadata.Width), int(frame.Metadata.Height)
	if screenshot.NumActiveDisplays() > 0 {
		b := screenshot.GetDisplayBounds(0)
		if b.Dx() > 0 && b.Dy() > 0 {
			w, h = b.Dx(), b.Dy()
		}
	}
	layers, err := compose.BuildLayers(frame, info, w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	s := &tkSurface{logger: logger, keymap: keymap, layers: layers, w: w, h: h}

	tk.App.WmTitle("hdr-snip")
	tk.WmAttributes(tk.App, "-fullscreen", true)
	tk.WmAttributes(tk.App, "-topmost", 1)
	tk.WmProtocol(tk.App, "WM_DELETE_WINDOW", func() {
		s.closed = true
		s.push(Event{Kind: EventClose})
	})
	s.photo = tk.NewPhoto(tk.Data(images.EncodePNG(layers.Base)))
	s.label = tk.Label(tk.Image(s.photo), tk.Borderwidth(0), tk.Cursor(tkCursors[selection.CursorCross]))
	tk.Pack(s.label, tk.Fill("both"), tk.Expand(true))

	tk.Bind(s.label, "<ButtonPress-1>", tk.Command(func(e *tk.Event) { s.push(Event{Kind: EventPointerDown, X: e.X, Y: e.Y}) }))
	tk.Bind(s.label, "<Motion>", tk.Command(func(e *tk.Event) { s.push(Event{Kind: EventPointerMove, X: e.X, Y: e.Y}) }))
	tk.Bind(s.label, "<ButtonRelease-1>", tk.Command(func(e *tk.Event) { s.push(Event{Kind: EventPointerUp, X: e.X, Y: e.Y}) }))
	tk.Bind(s.label, "<ButtonRelease-3>", tk.Command(func(e *tk.Event) { s.push(Event{Kind: EventSecondaryUp, X: e.X, Y: e.Y}) }))
	tk.Bind(tk.App, "<KeyPress>", tk.Command(func(e *tk.Event) {
		if k := s.keymap.FromKeysym(e.Keysym); k != selection.KeyNone {
			s.push(Event{Kind: EventKey, Key: k})
		}
	}))
	tk.Focus(tk.App)
	if logger != nil {
		logger.Info("tk preview ready", "frame_w", frame.Metadata.Width, "frame_h", frame.Metadata.Height,
			"window_w", w, "window_h", h)
	}
	return s, nil
}

func (s *tkSurface) push(e Event) { s.events = append(s.events, e) }

func (s *tkSurface) Size() (int, int) { return s.w, s.h }

// PumpEvents returns what the bindings queued since the last call. Tk
// dispatches them from its own loop, which drives Step.
func (s *tkSurface) PumpEvents() []Event {
	ev := s.events
	s.events = nil
	return ev
}

// Render re-composites only when the selection moved.
func (s *tkSurface) Render(sel selection.Rect, _ compose.Uniforms) error {
	if s.hasShown && sel == s.shown {
		return nil
	}
	img := s.layers.Compose(sel)
	if img == nil {
		return fmt.Errorf("preview: no layers")
	}
	data := images.EncodePNG(img)
	if data == nil {
		return fmt.Errorf("preview: png encode failed")
	}
	s.pending = tk.NewPhoto(tk.Data(data))
	s.shown, s.hasShown = sel, true
	return nil
}

func (s *tkSurface) Present() error {
	if s.pending == nil || s.label == nil {
		return nil
	}
	prev := s.photo
	s.photo, s.pending = s.pending, nil
	s.label.Configure(tk.Image(s.photo))
	if prev != nil {
		prev.Delete()
	}
	return nil
}

func (s *tkSurface) SetCursor(c selection.CursorHint) {
	if s.label == nil {
		return
	}
	name, ok := tkCursors[c]
	if !ok {
		name = "arrow"
	}
	s.label.Configure(tk.Cursor(name))
}

func (s *tkSurface) Closed() bool { return s.closed }

// Close drops the photos and ends the Tk main loop.
func (s *tkSurface) Close() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	for _, p := range []*tk.Img{s.pending, s.photo} {
		if p != nil {
			func() { defer func() { _ = recover() }(); p.Delete() }()
		}
	}
	s.pending, s.photo = nil, nil
	func() { defer func() { _ = recover() }(); tk.Destroy(tk.App) }()
}

// tkPreview runs the session on Tk's event loop; TclAfter drives Loop.Step
// so every widget call stays on the Tk thread.
type tkPreview struct {
	keymap    *action.Keymap
	tolerance int
	interval  time.Duration
	logger    *slog.Logger
}

func (p *tkPreview) Show(ctx context.Context, frame *capture.CapturedFrame, info hdr.DisplayHdrInfo) (selection.Rect, error) {
	surface, err := newTkSurface(frame, info, p.keymap, p.logger)
	if err != nil {
		return selection.Rect{}, err
	}
	loop := NewLoop(surface, selection.NewMachine(p.tolerance, p.logger), info, p.logger)
	if p.interval > 0 {
		loop.Interval = p.interval
	}
	defer loop.Close()

	var tick func()
	tick = func() {
		if ctx.Err() != nil {
			loop.Machine.Destroy()
		}
		if loop.Step() {
			loop.Close()
			return
		}
		tk.TclAfter(loop.Interval, tick)
	}
	tk.TclAfter(0, tick)
	tk.App.Wait()
	return loop.Machine.Result(), nil
}
