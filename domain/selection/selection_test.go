package selection

import (
	"bytes"
	"log/slog"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func TestRect_AccessorsIgnoreCornerOrder(t *testing.T) {
	cases := []Rect{
		{X1: 10, Y1: 20, X2: 110, Y2: 70},
		{X1: 110, Y1: 70, X2: 10, Y2: 20},
		{X1: 110, Y1: 20, X2: 10, Y2: 70},
		{X1: 10, Y1: 70, X2: 110, Y2: 20},
	}
	for _, r := range cases {
		if r.Left() != 10 || r.Top() != 20 || r.Right() != 110 || r.Bottom() != 70 {
			t.Fatalf("unexpected edges for %+v: l=%d t=%d r=%d b=%d", r, r.Left(), r.Top(), r.Right(), r.Bottom())
		}
		if r.Width() != 100 || r.Height() != 50 {
			t.Fatalf("unexpected size for %+v: %dx%d", r, r.Width(), r.Height())
		}
		if !r.IsValid() {
			t.Fatalf("expected %+v valid", r)
		}
	}
}

func TestRect_IsValid(t *testing.T) {
	cases := []struct {
		r    Rect
		want bool
	}{
		{Rect{10, 10, 10, 10}, false},
		{Rect{10, 10, 20, 10}, false},
		{Rect{10, 10, 10, 20}, false},
		{Rect{0, 0, 1, 1}, true},
		{Rect{}, false},
	}
	for _, c := range cases {
		if got := c.r.IsValid(); got != c.want {
			t.Fatalf("IsValid(%+v)=%v want %v", c.r, got, c.want)
		}
		if c.r.Width() < 0 || c.r.Height() < 0 {
			t.Fatalf("negative size for %+v", c.r)
		}
	}
	if (Rect{5, 5, 5, 5}).Image() != (Rect{}).Image() {
		t.Fatalf("invalid rect should map to empty image rectangle")
	}
}

func TestClassify_Regions(t *testing.T) {
	r := Rect{X1: 50, Y1: 50, X2: 150, Y2: 120}
	cases := []struct {
		x, y int
		want DragMode
	}{
		{50, 50, ModeTopLeft},
		{152, 48, ModeTopRight},
		{150, 120, ModeBottomRight},
		{47, 123, ModeBottomLeft},
		{100, 51, ModeTop},
		{150, 85, ModeRight},
		{100, 118, ModeBottom},
		{53, 85, ModeLeft},
		{100, 85, ModeMove},
		{10, 10, ModeNew},
		{200, 85, ModeNew},
		// On the top edge line but beyond the horizontal span and corner tolerance.
		{160, 50, ModeNew},
	}
	for _, c := range cases {
		if got := Classify(r, c.x, c.y, DefaultTolerance); got != c.want {
			t.Fatalf("Classify(%d,%d)=%v want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestClassify_CornerPriorityAndDeterminism(t *testing.T) {
	// A 3x3 rectangle: every point near it hits several edges at once.
	r := Rect{X1: 10, Y1: 10, X2: 13, Y2: 13}
	first := Classify(r, 12, 12, DefaultTolerance)
	if first != ModeTopLeft {
		t.Fatalf("expected top-left tie-break, got %v", first)
	}
	for i := 0; i < 10; i++ {
		if got := Classify(r, 12, 12, DefaultTolerance); got != first {
			t.Fatalf("classification not deterministic: %v vs %v", got, first)
		}
	}
	// Edge beats interior: a point inside and within tolerance of the top edge.
	big := Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	if got := Classify(big, 50, 2, DefaultTolerance); got != ModeTop {
		t.Fatalf("expected top edge over move, got %v", got)
	}
}

func TestClassify_InvalidRectIsNew(t *testing.T) {
	if got := Classify(Rect{10, 10, 10, 10}, 10, 10, DefaultTolerance); got != ModeNew {
		t.Fatalf("expected new for invalid rect, got %v", got)
	}
}

func TestMachine_NewRectangleScenario(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{10, 10, 10, 10}
	m.PointerDown(50, 50)
	if m.Mode() != ModeNew {
		t.Fatalf("expected new mode, got %v", m.Mode())
	}
	m.PointerMove(150, 120)
	r := m.Rect()
	if r.Left() != 50 || r.Top() != 50 || r.Right() != 150 || r.Bottom() != 120 || !r.IsValid() {
		t.Fatalf("unexpected rect %+v", r)
	}
}

func TestMachine_RightEdgeScenario(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{50, 50, 150, 120}
	m.PointerDown(150, 85)
	if m.Mode() != ModeRight {
		t.Fatalf("expected right mode, got %v", m.Mode())
	}
	m.PointerMove(200, 85)
	r := m.Rect()
	if r.Right() != 200 || r.Top() != 50 || r.Bottom() != 120 || r.Left() != 50 {
		t.Fatalf("unexpected rect %+v", r)
	}
}

func TestMachine_LeftEdgeChangesOneCoordinate(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{150, 120, 50, 50} // reversed corners get normalized on press
	m.PointerDown(51, 90)
	if m.Mode() != ModeLeft {
		t.Fatalf("expected left mode, got %v", m.Mode())
	}
	before := m.Rect()
	m.PointerMove(20, 300)
	after := m.Rect()
	if after.X1 != 20 || after.Y1 != before.Y1 || after.X2 != before.X2 || after.Y2 != before.Y2 {
		t.Fatalf("left drag changed more than X1: before=%+v after=%+v", before, after)
	}
}

func TestMachine_CornerKeepsOppositeCorner(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{50, 50, 150, 120}
	m.PointerDown(50, 50)
	m.PointerMove(10, 5)
	r := m.Rect()
	if r.X1 != 10 || r.Y1 != 5 || r.X2 != 150 || r.Y2 != 120 {
		t.Fatalf("unexpected top-left drag result %+v", r)
	}
}

func TestMachine_MovePreservesSize(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{50, 50, 150, 120}
	m.PointerDown(100, 85)
	if m.Mode() != ModeMove {
		t.Fatalf("expected move, got %v", m.Mode())
	}
	m.PointerMove(110, 80)
	m.PointerMove(130, 95)
	r := m.Rect()
	if r.X1 != 80 || r.Y1 != 60 || r.X2 != 180 || r.Y2 != 130 {
		t.Fatalf("unexpected translated rect %+v", r)
	}
	if r.Width() != 100 || r.Height() != 70 {
		t.Fatalf("move changed size: %dx%d", r.Width(), r.Height())
	}
}

func TestMachine_LastPointerTrackedWhileIdle(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{50, 50, 150, 120}
	// Hover moves before the press must not leak into the first move delta.
	m.PointerMove(0, 0)
	m.PointerMove(100, 85)
	m.PointerDown(100, 85)
	m.PointerMove(101, 85)
	if r := m.Rect(); r.X1 != 51 || r.X2 != 151 {
		t.Fatalf("expected 1px move, got %+v", r)
	}
}

func TestMachine_PrimaryUpDoesNotEndSession(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.PointerDown(10, 10)
	m.PointerMove(20, 20)
	m.PointerUp()
	if m.Done() || m.Dragging() {
		t.Fatalf("primary release should only end dragging: done=%v dragging=%v", m.Done(), m.Dragging())
	}
	m.PointerMove(90, 90)
	if r := m.Rect(); r.X2 != 20 {
		t.Fatalf("moves after release must not edit: %+v", r)
	}
}

func TestMachine_ConfirmAndCancel(t *testing.T) {
	cases := []struct {
		name string
		end  func(*Machine)
		want Outcome
	}{
		{"secondary", (*Machine).SecondaryUp, OutcomeConfirmed},
		{"accept", func(m *Machine) { m.Key(KeyAccept) }, OutcomeConfirmed},
		{"cancel", func(m *Machine) { m.Key(KeyCancel) }, OutcomeCancelled},
		{"destroy", (*Machine).Destroy, OutcomeCancelled},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewMachine(0, discardLogger)
			var seen []Outcome
			m.AddListener(func(_, next Outcome) { seen = append(seen, next) })
			m.PointerDown(10, 10)
			m.PointerMove(60, 40)
			m.Key(KeyNone)
			if m.Done() {
				t.Fatalf("unrelated key ended the session")
			}
			c.end(m)
			if m.Outcome() != c.want {
				t.Fatalf("outcome=%v want %v", m.Outcome(), c.want)
			}
			// A second terminal event is ignored.
			m.Destroy()
			if m.Outcome() != c.want || len(seen) != 1 {
				t.Fatalf("terminal state changed: outcome=%v listener calls=%d", m.Outcome(), len(seen))
			}
			res := m.Result()
			if c.want == OutcomeConfirmed && (res.Width() != 50 || res.Height() != 30) {
				t.Fatalf("confirmed result lost geometry: %+v", res)
			}
			if c.want == OutcomeCancelled && res.IsValid() {
				t.Fatalf("cancelled result must be invalid: %+v", res)
			}
		})
	}
}

func TestMachine_HoverCursor(t *testing.T) {
	m := NewMachine(DefaultTolerance, discardLogger)
	m.rect = Rect{50, 50, 150, 120}
	cases := []struct {
		x, y int
		want CursorHint
	}{
		{50, 50, CursorSizeNWSE},
		{150, 50, CursorSizeNESW},
		{100, 50, CursorSizeNS},
		{150, 85, CursorSizeWE},
		{100, 85, CursorSizeAll},
		{5, 5, CursorCross},
	}
	for _, c := range cases {
		if got := m.HoverCursor(c.x, c.y); got != c.want {
			t.Fatalf("HoverCursor(%d,%d)=%v want %v", c.x, c.y, got, c.want)
		}
	}
}
