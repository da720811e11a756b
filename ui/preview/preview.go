// Package preview shows a captured HDR frame fullscreen and runs the
// interactive selection session over it.
package preview

import (
	"context"
	"errors"

	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/compose"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

// ErrInit is wrapped by every surface initialisation failure.
var ErrInit = errors.New("preview: surface initialisation failed")

// EventKind classifies surface input.
type EventKind int

const (
	EventPointerDown EventKind = iota
	EventPointerMove
	EventPointerUp
	EventSecondaryUp
	EventKey
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventPointerDown:
		return "pointer_down"
	case EventPointerMove:
		return "pointer_move"
	case EventPointerUp:
		return "pointer_up"
	case EventSecondaryUp:
		return "secondary_up"
	case EventKey:
		return "key"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one input event in window pixel coordinates. Key is already
// resolved through the keymap.
type Event struct {
	Kind EventKind
	X, Y int
	Key  selection.Key
}

// Surface is a fullscreen window able to show the composited frame. All
// methods are called from the goroutine that created it.
type Surface interface {
	// Size is the window size in pixels.
	Size() (w, h int)
	// PumpEvents drains pending input without blocking.
	PumpEvents() []Event
	Render(sel selection.Rect, u compose.Uniforms) error
	// Present shows the rendered frame. It may wait for vsync.
	Present() error
	SetCursor(c selection.CursorHint)
	// Closed reports whether the window was destroyed externally.
	Closed() bool
	// Close releases GPU and window resources. It must tolerate partial
	// initialisation and repeated calls.
	Close()
}

// Preview runs one selection session over frame.
type Preview interface {
	// Show blocks until the user confirms or cancels. A cancelled session
	// returns the zero Rect and a nil error.
	Show(ctx context.Context, frame *capture.CapturedFrame, info hdr.DisplayHdrInfo) (selection.Rect, error)
}
