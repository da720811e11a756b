package compose

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

const encodeSteps = 4096

var (
	encodeOnce sync.Once
	encodeLUT  [encodeSteps + 1]uint8 // linear [0,1] -> 8-bit sRGB
)

// EncodeSRGB8 converts a linear value to an 8-bit sRGB code, clipping
// anything outside [0,1].
func EncodeSRGB8(v float32) uint8 {
	encodeOnce.Do(func() {
		for i := range encodeLUT {
			lin := float64(i) / encodeSteps
			r, _, _ := colorful.LinearRgb(lin, lin, lin).Clamped().RGB255()
			encodeLUT[i] = r
		}
	})
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return encodeLUT[int(math.Round(float64(v)*encodeSteps))]
}

// Layers holds the two pre-shaded renditions of a frame scaled to the
// window: Base is the pass-through sample, Dimmed is the surround rule. A
// composite takes Dimmed and pastes Base inside the selection, which equals
// Shade per pixel.
type Layers struct {
	Base   *image.NRGBA
	Dimmed *image.NRGBA
}

// BuildLayers tone-maps frame into 8-bit sRGB and scales it to winW x winH.
func BuildLayers(frame *capture.CapturedFrame, info hdr.DisplayHdrInfo, winW, winH int) (Layers, error) {
	if err := frame.Validate(); err != nil {
		return Layers{}, err
	}
	w, h := int(frame.Metadata.Width), int(frame.Metadata.Height)
	base := image.NewNRGBA(image.Rect(0, 0, w, h))
	dimmed := image.NewNRGBA(image.Rect(0, 0, w, h))
	ratio := info.SDRWhiteRatio()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := frame.PixelAt(x, y)
			base.SetNRGBA(x, y, toNRGBA(px))
			dimmed.SetNRGBA(x, y, toNRGBA(Dim(px, ratio, DimFactor)))
		}
	}
	if winW > 0 && winH > 0 && (winW != w || winH != h) {
		base = imaging.Resize(base, winW, winH, imaging.Linear)
		dimmed = imaging.Resize(dimmed, winW, winH, imaging.Linear)
	}
	return Layers{Base: base, Dimmed: dimmed}, nil
}

// Compose renders the layers for the current selection in window pixels.
func (l Layers) Compose(r selection.Rect) *image.NRGBA {
	if l.Base == nil || l.Dimmed == nil {
		return nil
	}
	if !r.IsValid() {
		return imaging.Clone(l.Base)
	}
	b := l.Base.Bounds()
	// Inclusive edges, matching Shade.
	sel := image.Rect(r.Left(), r.Top(), r.Right()+1, r.Bottom()+1).Intersect(b)
	if sel.Empty() {
		return imaging.Clone(l.Dimmed)
	}
	return imaging.Paste(l.Dimmed, imaging.Crop(l.Base, sel), sel.Min)
}

func toNRGBA(px [4]float32) color.NRGBA {
	a := px[3]
	if a > 1 {
		a = 1
	} else if !(a > 0) {
		a = 0
	}
	return color.NRGBA{R: EncodeSRGB8(px[0]), G: EncodeSRGB8(px[1]), B: EncodeSRGB8(px[2]), A: uint8(a*255 + 0.5)}
}
