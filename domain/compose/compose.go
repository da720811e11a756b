// Package compose holds the selection compositing rule shared by the GPU
// shader and the CPU preview path.
package compose

import (
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

// DimFactor scales the SDR-clamped surround.
const DimFactor = 0.2

// QuadVertices is a triangle strip covering the window: x, y, u, v per
// vertex. Texture v runs top-down so frame row 0 lands at the top edge.
var QuadVertices = [16]float32{
	-1, 1, 0, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	1, -1, 1, 1,
}

// Uniforms is the per-frame input of the composite pass.
type Uniforms struct {
	// Selection is x1, y1, x2, y2 normalised to [0,1] texture space.
	Selection     [4]float32
	SDRWhiteRatio float32
	HasSelection  bool
	Dim           float32
}

// ComputeUniforms derives shader inputs from the selection in window pixels.
// Window y grows downward, and so does texture v, so no inversion is needed.
func ComputeUniforms(r selection.Rect, winW, winH int, info hdr.DisplayHdrInfo) Uniforms {
	u := Uniforms{SDRWhiteRatio: info.SDRWhiteRatio(), Dim: DimFactor}
	if winW <= 0 || winH <= 0 {
		return u
	}
	u.HasSelection = r.IsValid()
	w, h := float32(winW), float32(winH)
	u.Selection = [4]float32{float32(r.X1) / w, float32(r.Y1) / h, float32(r.X2) / w, float32(r.Y2) / h}
	return u
}

// Inside reports whether texture coordinate (tx, ty) lies within the
// selection, edges included.
func (u Uniforms) Inside(tx, ty float32) bool {
	left, right := minmax(u.Selection[0], u.Selection[2])
	top, bottom := minmax(u.Selection[1], u.Selection[3])
	return tx >= left && tx <= right && ty >= top && ty <= bottom
}

// Shade applies the fragment rule to one linear scRGB sample.
func Shade(px [4]float32, u Uniforms, tx, ty float32) [4]float32 {
	if !u.HasSelection || u.Inside(tx, ty) {
		return px
	}
	return Dim(px, u.SDRWhiteRatio, u.Dim)
}

// Dim clamps each colour channel to ratio and scales it by factor. Alpha is
// kept.
func Dim(px [4]float32, ratio, factor float32) [4]float32 {
	for c := 0; c < 3; c++ {
		px[c] = min(px[c], ratio) * factor
	}
	return px
}

func minmax(a, b float32) (float32, float32) {
	if a < b {
		return a, b
	}
	return b, a
}
