package capture

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestEncodeSRGB_LinearisesAndPacks(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 13, 11))
	img.SetRGBA(10, 10, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(11, 10, color.RGBA{255, 255, 255, 255})
	img.SetRGBA(12, 10, color.RGBA{128, 64, 255, 0})

	pix, w, h := EncodeSRGB(img)
	if w != 3 || h != 1 || len(pix) != 3*BytesPerPixel {
		t.Fatalf("unexpected layout %dx%d len=%d", w, h, len(pix))
	}
	f := &CapturedFrame{Pixels: pix, Metadata: FrameMetadata{Width: w, Height: h, RowPitch: w * BytesPerPixel}}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := f.PixelAt(0, 0); got != [4]float32{0, 0, 0, 1} {
		t.Fatalf("black: %v", got)
	}
	if got := f.PixelAt(1, 0); got != [4]float32{1, 1, 1, 1} {
		t.Fatalf("white: %v", got)
	}
	mid := f.PixelAt(2, 0)
	if math.Abs(float64(mid[0])-0.2158) > 0.002 {
		t.Fatalf("sRGB 128 should linearise to ~0.216, got %v", mid[0])
	}
	if mid[1] >= mid[0] || mid[2] != 1 || mid[3] != 1 {
		t.Fatalf("unexpected texel %v", mid)
	}
}

func TestEncodeSRGB_Empty(t *testing.T) {
	if pix, _, _ := EncodeSRGB(nil); pix != nil {
		t.Fatalf("nil image should encode to nil")
	}
	if pix, _, _ := EncodeSRGB(image.NewRGBA(image.Rect(0, 0, 0, 5))); pix != nil {
		t.Fatalf("empty image should encode to nil")
	}
}

func TestCapturedFrame_ValidateAndPixelAt(t *testing.T) {
	cases := []struct {
		name string
		f    *CapturedFrame
		ok   bool
	}{
		{"nil", nil, false},
		{"empty", &CapturedFrame{}, false},
		{"padded pitch", &CapturedFrame{Pixels: make([]byte, 32), Metadata: FrameMetadata{Width: 2, Height: 1, RowPitch: 32}}, false},
		{"short buffer", &CapturedFrame{Pixels: make([]byte, 8), Metadata: FrameMetadata{Width: 2, Height: 1, RowPitch: 16}}, false},
		{"ok", &CapturedFrame{Pixels: make([]byte, 16), Metadata: FrameMetadata{Width: 2, Height: 1, RowPitch: 16}}, true},
	}
	for _, c := range cases {
		if err := c.f.Validate(); (err == nil) != c.ok {
			t.Fatalf("%s: Validate err=%v want ok=%v", c.name, err, c.ok)
		}
	}
	f := cases[len(cases)-1].f
	if got := f.PixelAt(5, 0); got != ([4]float32{}) {
		t.Fatalf("out of range pixel should be zero, got %v", got)
	}
}

func TestScreenshotBackend_FeedsEngine(t *testing.T) {
	b := NewScreenshotBackend(time.Millisecond, discardLogger)
	var grabs atomic.Int32
	b.bounds = func() (image.Rectangle, error) { return image.Rect(0, 0, 4, 2), nil }
	b.grab = func(r image.Rectangle) (*image.RGBA, error) {
		grabs.Add(1)
		img := image.NewRGBA(r)
		for i := range img.Pix {
			img.Pix[i] = 255
		}
		return img, nil
	}
	e := NewEngine(b, discardLogger)
	if err := e.StartCapture(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.StopCapture()

	deadline := time.Now().Add(2 * time.Second)
	var f *CapturedFrame
	for f == nil && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
		f = e.GetLatestFrame()
	}
	if f == nil {
		t.Fatalf("no frame after %d grabs", grabs.Load())
	}
	if f.Metadata.Width != 4 || f.Metadata.Height != 2 {
		t.Fatalf("unexpected size %+v", f.Metadata)
	}
	if got := f.PixelAt(3, 1); got != [4]float32{1, 1, 1, 1} {
		t.Fatalf("white should map to scRGB 1.0, got %v", got)
	}
}

func TestScreenshotBackend_StopHaltsCaptureThread(t *testing.T) {
	b := NewScreenshotBackend(time.Millisecond, discardLogger)
	var grabs atomic.Int32
	b.bounds = func() (image.Rectangle, error) { return image.Rect(0, 0, 2, 2), nil }
	b.grab = func(r image.Rectangle) (*image.RGBA, error) {
		grabs.Add(1)
		return image.NewRGBA(r), nil
	}
	e := NewEngine(b, discardLogger)
	if err := e.StartCapture(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	e.StopCapture()
	after := grabs.Load()
	time.Sleep(10 * time.Millisecond)
	if grabs.Load() != after {
		t.Fatalf("capture thread kept running after stop")
	}
}

func TestScreenshotBackend_OpenFailsWithoutDisplay(t *testing.T) {
	b := NewScreenshotBackend(0, discardLogger)
	b.bounds = func() (image.Rectangle, error) { return image.Rectangle{}, errors.New("headless") }
	e := NewEngine(b, discardLogger)
	if err := e.StartCapture(); err == nil || e.Running() {
		t.Fatalf("expected start failure, err=%v running=%v", err, e.Running())
	}
	if b.Interval != DefaultScreenshotInterval {
		t.Fatalf("zero interval should default, got %v", b.Interval)
	}
}

func TestNewBackend_Kinds(t *testing.T) {
	if b, err := NewBackend(BackendScreenshot, 0, discardLogger); err != nil || b == nil {
		t.Fatalf("screenshot backend: %v", err)
	}
	if _, err := NewBackend("bogus", 0, discardLogger); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
