package selection

import "image"

// Rect is the user selection in window pixel coordinates. The two corners are
// stored as the user produced them and are not kept normalized, so X1 may be
// greater than X2. A Rect that is not valid means "no selection".
type Rect struct {
	X1, Y1 int
	X2, Y2 int
}

func (r Rect) Left() int   { return min(r.X1, r.X2) }
func (r Rect) Top() int    { return min(r.Y1, r.Y2) }
func (r Rect) Right() int  { return max(r.X1, r.X2) }
func (r Rect) Bottom() int { return max(r.Y1, r.Y2) }

func (r Rect) Width() int  { return r.Right() - r.Left() }
func (r Rect) Height() int { return r.Bottom() - r.Top() }

// IsValid reports whether both dimensions are strictly positive.
func (r Rect) IsValid() bool { return r.Width() > 0 && r.Height() > 0 }

// Normalize returns the rectangle with (X1,Y1) top-left and (X2,Y2) bottom-right.
func (r Rect) Normalize() Rect {
	return Rect{X1: r.Left(), Y1: r.Top(), X2: r.Right(), Y2: r.Bottom()}
}

// Translate moves both corners by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Image converts the selection to an image.Rectangle. Invalid selections map
// to the empty rectangle.
func (r Rect) Image() image.Rectangle {
	if !r.IsValid() {
		return image.Rectangle{}
	}
	return image.Rect(r.Left(), r.Top(), r.Right(), r.Bottom())
}
