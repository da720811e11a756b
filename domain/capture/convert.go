package capture

import (
	"encoding/binary"
	"image"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/x448/float16"
)

var (
	srgbLUTOnce sync.Once
	srgbLUT     [256]uint16 // 8-bit sRGB code -> half-float bits of linear value
	halfOne     = float16.Fromfloat32(1).Bits()
)

func srgbToLinearHalf() *[256]uint16 {
	srgbLUTOnce.Do(func() {
		for i := range srgbLUT {
			lin, _, _ := colorful.Color{R: float64(i) / 255}.LinearRgb()
			srgbLUT[i] = float16.Fromfloat32(float32(lin)).Bits()
		}
	})
	return &srgbLUT
}

// EncodeSRGB converts an 8-bit sRGB image into tightly packed scRGB
// R16G16B16A16 float texels. SDR white maps to linear 1.0 and alpha is opaque.
func EncodeSRGB(img *image.RGBA) (pixels []byte, width, height uint32) {
	if img == nil {
		return nil, 0, 0
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	lut := srgbToLinearHalf()
	out := make([]byte, w*h*BytesPerPixel)
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out[y*w*BytesPerPixel:]
		for x := 0; x < w; x++ {
			s := src[x*4 : x*4+4]
			d := dst[x*BytesPerPixel : x*BytesPerPixel+BytesPerPixel]
			binary.LittleEndian.PutUint16(d[0:], lut[s[0]])
			binary.LittleEndian.PutUint16(d[2:], lut[s[1]])
			binary.LittleEndian.PutUint16(d[4:], lut[s[2]])
			binary.LittleEndian.PutUint16(d[6:], halfOne)
		}
	}
	return out, uint32(w), uint32(h)
}
