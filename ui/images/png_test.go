package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestEncodePNG_RoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
	data := EncodePNG(src)
	if len(data) == 0 {
		t.Fatalf("expected png bytes")
	}
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds %v, want %v", got.Bounds(), src.Bounds())
	}
	r, g, b, _ := got.At(2, 1).RGBA()
	if r>>8 != 200 || g>>8 != 10 || b>>8 != 30 {
		t.Fatalf("pixel (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG_Nil(t *testing.T) {
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image should encode to nil")
	}
}

func TestEncodePNG_EmptyImageFails(t *testing.T) {
	if data := EncodePNG(image.NewNRGBA(image.Rectangle{})); data != nil {
		t.Fatalf("empty image should not encode, got %d bytes", len(data))
	}
}
