package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/x448/float16"
)

// BytesPerPixel is the size of one R16G16B16A16 float texel.
const BytesPerPixel = 8

var (
	// ErrNoFrame is returned when no frame arrived within the allotted wait.
	ErrNoFrame = errors.New("capture: no frame available")
	// ErrUnsupported is returned when a backend is unavailable on this platform.
	ErrUnsupported = errors.New("capture: backend unsupported on this platform")
)

// Size is a pixel extent as reported by the capture session.
type Size struct {
	Width  int32
	Height int32
}

func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// FrameMetadata describes the layout of CapturedFrame.Pixels.
type FrameMetadata struct {
	Width    uint32
	Height   uint32
	RowPitch uint32
}

// CapturedFrame is one published HDR frame in scRGB half-float RGBA. It is
// immutable once published and is shared by pointer.
type CapturedFrame struct {
	Pixels     []byte
	Metadata   FrameMetadata
	Sequence   uint64
	CapturedAt time.Time
}

// Validate checks that the pixel buffer matches the metadata.
func (f *CapturedFrame) Validate() error {
	if f == nil {
		return errors.New("capture: nil frame")
	}
	m := f.Metadata
	if m.Width == 0 || m.Height == 0 {
		return fmt.Errorf("capture: empty frame %dx%d", m.Width, m.Height)
	}
	if m.RowPitch != m.Width*BytesPerPixel {
		return fmt.Errorf("capture: row pitch %d, want %d", m.RowPitch, m.Width*BytesPerPixel)
	}
	if want := int(m.RowPitch) * int(m.Height); len(f.Pixels) != want {
		return fmt.Errorf("capture: pixel buffer %d bytes, want %d", len(f.Pixels), want)
	}
	return nil
}

// PixelAt decodes the texel at (x, y). Out of range coordinates yield zero.
func (f *CapturedFrame) PixelAt(x, y int) [4]float32 {
	var out [4]float32
	if f == nil || x < 0 || y < 0 || x >= int(f.Metadata.Width) || y >= int(f.Metadata.Height) {
		return out
	}
	off := y*int(f.Metadata.RowPitch) + x*BytesPerPixel
	if off+BytesPerPixel > len(f.Pixels) {
		return out
	}
	for c := 0; c < 4; c++ {
		out[c] = float16.Frombits(binary.LittleEndian.Uint16(f.Pixels[off+2*c:])).Float32()
	}
	return out
}

// CaptureStats summarises engine behaviour for instrumentation.
type CaptureStats struct {
	Published       uint64
	DroppedOnResize uint64
	Failed          uint64
	Resizes         uint64
	AvgDecode       time.Duration
	AvgDecodeMicros float64
	LastPublish     time.Time
	LatestFrameAge  time.Duration
	Sequence        uint64
}
