package selection

import "log/slog"

// Outcome is the terminal state of a selection session.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeConfirmed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Key is a session-level key action produced by a surface.
type Key int

const (
	KeyNone Key = iota
	KeyAccept
	KeyCancel
)

// OutcomeListener is called once when the session leaves the running state.
type OutcomeListener func(prev, next Outcome)

// Machine drives rectangle editing from pointer and key input. It is not safe
// for concurrent use; the preview loop owns it.
type Machine struct {
	rect      Rect
	tolerance int
	dragging  bool
	mode      DragMode
	lastX     int
	lastY     int
	outcome   Outcome
	logger    *slog.Logger
	listeners []OutcomeListener
}

// NewMachine returns a machine with an empty selection. tol <= 0 selects DefaultTolerance.
func NewMachine(tol int, logger *slog.Logger) *Machine {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Machine{tolerance: tol, logger: logger}
}

func (m *Machine) AddListener(l OutcomeListener) { m.listeners = append(m.listeners, l) }

// Rect returns the selection as currently edited.
func (m *Machine) Rect() Rect { return m.rect }

// Mode returns the drag mode chosen by the last primary press.
func (m *Machine) Mode() DragMode   { return m.mode }
func (m *Machine) Dragging() bool   { return m.dragging }
func (m *Machine) Outcome() Outcome { return m.outcome }
func (m *Machine) Done() bool       { return m.outcome != OutcomeRunning }

// Result returns the confirmed rectangle, or the zero (invalid) rectangle when
// the session was cancelled or is still running.
func (m *Machine) Result() Rect {
	if m.outcome != OutcomeConfirmed {
		return Rect{}
	}
	return m.rect
}

// PointerDown starts a drag at (x, y).
func (m *Machine) PointerDown(x, y int) {
	if m.Done() {
		return
	}
	m.lastX, m.lastY = x, y
	m.dragging = true
	m.mode = Classify(m.rect, x, y, m.tolerance)
	if m.mode == ModeNew {
		m.rect = Rect{X1: x, Y1: y, X2: x, Y2: y}
	} else {
		m.rect = m.rect.Normalize()
	}
	if m.logger != nil {
		m.logger.Debug("selection drag start", "x", x, "y", y, "mode", m.mode.String())
	}
}

// PointerMove applies a move while dragging. The last pointer position is
// tracked on every move so that a move drag never jumps on its first step.
func (m *Machine) PointerMove(x, y int) {
	if m.Done() {
		return
	}
	if m.dragging {
		m.rect = Drag(m.rect, m.mode, x, y, x-m.lastX, y-m.lastY)
	}
	m.lastX, m.lastY = x, y
}

// PointerUp ends the current drag. It does not end the session.
func (m *Machine) PointerUp() {
	if m.dragging && m.logger != nil {
		r := m.rect
		m.logger.Debug("selection drag end", "left", r.Left(), "top", r.Top(), "right", r.Right(), "bottom", r.Bottom())
	}
	m.dragging = false
}

// SecondaryUp confirms the selection.
func (m *Machine) SecondaryUp() { m.finish(OutcomeConfirmed) }

// Key handles accept and cancel keys. Other keys are ignored.
func (m *Machine) Key(k Key) {
	switch k {
	case KeyAccept:
		m.finish(OutcomeConfirmed)
	case KeyCancel:
		m.finish(OutcomeCancelled)
	}
}

// Destroy cancels the session; the surface went away.
func (m *Machine) Destroy() { m.finish(OutcomeCancelled) }

// HoverCursor returns the cursor for (x, y). While dragging the cursor of the
// active mode is kept.
func (m *Machine) HoverCursor(x, y int) CursorHint {
	if m.dragging {
		return m.mode.Cursor()
	}
	return Classify(m.rect, x, y, m.tolerance).Cursor()
}

func (m *Machine) finish(next Outcome) {
	prev := m.outcome
	if prev != OutcomeRunning {
		return
	}
	m.dragging = false
	m.outcome = next
	if m.logger != nil {
		m.logger.Debug("selection session finished", "outcome", next.String())
	}
	for _, l := range m.listeners {
		l(prev, next)
	}
}
