package selection

// DragMode classifies which part of the current selection a press landed on.
type DragMode int

const (
	ModeNew DragMode = iota
	ModeTopLeft
	ModeTopRight
	ModeBottomRight
	ModeBottomLeft
	ModeTop
	ModeRight
	ModeBottom
	ModeLeft
	ModeMove
)

// DefaultTolerance is the hit distance in pixels for corners and edges.
const DefaultTolerance = 3

func (m DragMode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeTopLeft:
		return "top-left"
	case ModeTopRight:
		return "top-right"
	case ModeBottomRight:
		return "bottom-right"
	case ModeBottomLeft:
		return "bottom-left"
	case ModeTop:
		return "top"
	case ModeRight:
		return "right"
	case ModeBottom:
		return "bottom"
	case ModeLeft:
		return "left"
	case ModeMove:
		return "move"
	default:
		return "unknown"
	}
}

// CursorHint is a platform-neutral cursor shape. Surfaces map it to native cursors.
type CursorHint int

const (
	CursorCross CursorHint = iota
	CursorSizeNWSE
	CursorSizeNESW
	CursorSizeNS
	CursorSizeWE
	CursorSizeAll
)

func (c CursorHint) String() string {
	switch c {
	case CursorSizeNWSE:
		return "size-nwse"
	case CursorSizeNESW:
		return "size-nesw"
	case CursorSizeNS:
		return "size-ns"
	case CursorSizeWE:
		return "size-we"
	case CursorSizeAll:
		return "size-all"
	default:
		return "cross"
	}
}

// Cursor returns the cursor shown while hovering a region of this mode.
func (m DragMode) Cursor() CursorHint {
	switch m {
	case ModeTopLeft, ModeBottomRight:
		return CursorSizeNWSE
	case ModeTopRight, ModeBottomLeft:
		return CursorSizeNESW
	case ModeTop, ModeBottom:
		return CursorSizeNS
	case ModeLeft, ModeRight:
		return CursorSizeWE
	case ModeMove:
		return CursorSizeAll
	default:
		return CursorCross
	}
}

// Classify hit-tests (x, y) against r. Corners win over edges, edges over the
// interior. Edge hits must lie within the rectangle's span on the other axis
// and the interior test excludes the boundary. Anything else, including any
// press while r is invalid, starts a new rectangle.
func Classify(r Rect, x, y, tol int) DragMode {
	if !r.IsValid() {
		return ModeNew
	}
	l, t, rt, b := r.Left(), r.Top(), r.Right(), r.Bottom()

	hitL := abs(x-l) <= tol
	hitR := abs(x-rt) <= tol
	hitT := abs(y-t) <= tol
	hitB := abs(y-b) <= tol

	switch {
	case hitL && hitT:
		return ModeTopLeft
	case hitR && hitT:
		return ModeTopRight
	case hitR && hitB:
		return ModeBottomRight
	case hitL && hitB:
		return ModeBottomLeft
	case hitT && x >= l && x <= rt:
		return ModeTop
	case hitR && y >= t && y <= b:
		return ModeRight
	case hitB && x >= l && x <= rt:
		return ModeBottom
	case hitL && y >= t && y <= b:
		return ModeLeft
	case x > l && x < rt && y > t && y < b:
		return ModeMove
	}
	return ModeNew
}

// Drag applies one pointer move at (x, y) to r under mode. (dx, dy) is the
// pointer delta since the previous move and is only used by ModeMove.
func Drag(r Rect, mode DragMode, x, y, dx, dy int) Rect {
	switch mode {
	case ModeNew, ModeBottomRight:
		r.X2, r.Y2 = x, y
	case ModeTopLeft:
		r.X1, r.Y1 = x, y
	case ModeTopRight:
		r.X2, r.Y1 = x, y
	case ModeBottomLeft:
		r.X1, r.Y2 = x, y
	case ModeTop:
		r.Y1 = y
	case ModeRight:
		r.X2 = x
	case ModeBottom:
		r.Y2 = y
	case ModeLeft:
		r.X1 = x
	case ModeMove:
		r = r.Translate(dx, dy)
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
