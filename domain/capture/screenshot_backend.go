package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	kscreenshot "github.com/kbinani/screenshot"
	vscreenshot "github.com/vova616/screenshot"
)

// DefaultScreenshotInterval paces the screenshot backend's capture thread.
const DefaultScreenshotInterval = 16 * time.Millisecond

// ScreenshotBackend captures the primary display through plain screenshots
// and delivers them as SDR content encoded in scRGB half floats. Frames take
// the same arrival path as hardware capture; the "device" is CPU memory.
type ScreenshotBackend struct {
	Interval time.Duration
	logger   *slog.Logger
	device   cpuDevice

	// Overridable for tests.
	bounds func() (image.Rectangle, error)
	grab   func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenshotBackend returns a backend polling every interval.
func NewScreenshotBackend(interval time.Duration, logger *slog.Logger) *ScreenshotBackend {
	if interval <= 0 {
		interval = DefaultScreenshotInterval
	}
	return &ScreenshotBackend{
		Interval: interval,
		logger:   logger,
		bounds:   primaryBounds,
		grab:     vscreenshot.CaptureRect,
	}
}

func primaryBounds() (image.Rectangle, error) {
	if kscreenshot.NumActiveDisplays() < 1 {
		return image.Rectangle{}, fmt.Errorf("screenshot: no active display")
	}
	r := kscreenshot.GetDisplayBounds(0)
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("screenshot: empty primary display bounds")
	}
	return r, nil
}

func (b *ScreenshotBackend) Device() Device { return b.device }

func (b *ScreenshotBackend) Open(onFrame func(FrameSource)) (Session, error) {
	r, err := b.bounds()
	if err != nil {
		return nil, err
	}
	return &screenshotSession{
		backend: b,
		onFrame: onFrame,
		size:    Size{Width: int32(r.Dx()), Height: int32(r.Dy())},
		done:    make(chan struct{}),
	}, nil
}

type screenshotSession struct {
	backend *ScreenshotBackend
	onFrame func(FrameSource)

	mu   sync.Mutex
	size Size

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func (s *screenshotSession) Start() error {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.loop()
	})
	return nil
}

func (s *screenshotSession) Recreate(size Size) error {
	s.mu.Lock()
	s.size = size
	s.mu.Unlock()
	return nil
}

func (s *screenshotSession) Size() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *screenshotSession) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *screenshotSession) loop() {
	defer s.wg.Done()
	defer recoverLog(s.backend.logger, "screenshot capture panic")
	ticker := time.NewTicker(s.backend.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		default:
		}
		s.captureOnce()
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *screenshotSession) captureOnce() {
	r, err := s.backend.bounds()
	if err != nil {
		s.debug("screenshot bounds", err)
		return
	}
	img, err := s.backend.grab(r)
	if err != nil {
		s.debug("screenshot grab", err)
		return
	}
	pix, w, h := EncodeSRGB(img)
	if pix == nil {
		return
	}
	s.onFrame(&cpuFrameSource{frame: &cpuFrame{tex: &cpuTexture{
		desc: TextureDesc{Width: w, Height: h, Format: FormatRGBA16Float},
		pix:  pix,
	}}})
}

func (s *screenshotSession) debug(msg string, err error) {
	if s.backend.logger != nil {
		s.backend.logger.Debug(msg, "error", err)
	}
}

// cpuFrameSource yields its frame once.
type cpuFrameSource struct {
	frame *cpuFrame
}

func (c *cpuFrameSource) TryGetNextFrame() (Frame, bool) {
	if c.frame == nil {
		return nil, false
	}
	f := c.frame
	c.frame = nil
	return f, true
}

type cpuFrame struct {
	tex *cpuTexture
}

func (f *cpuFrame) ContentSize() Size {
	return Size{Width: int32(f.tex.desc.Width), Height: int32(f.tex.desc.Height)}
}
func (f *cpuFrame) Texture() (Texture, error) { return f.tex, nil }
func (f *cpuFrame) Close()                    {}

type cpuTexture struct {
	desc TextureDesc
	pix  []byte // tightly packed
}

func (t *cpuTexture) Desc() TextureDesc { return t.desc }

type cpuStaging struct {
	buf   []byte
	pitch uint32
}

func (s *cpuStaging) Release() { s.buf = nil }

// cpuDevice mimics a staging readback with CPU buffers.
type cpuDevice struct{}

func (cpuDevice) CreateStaging(desc TextureDesc) (Staging, error) {
	if desc.Format != FormatRGBA16Float {
		return nil, fmt.Errorf("screenshot: unsupported format %d", desc.Format)
	}
	pitch := desc.Width * BytesPerPixel
	return &cpuStaging{buf: make([]byte, int(pitch)*int(desc.Height)), pitch: pitch}, nil
}

func (cpuDevice) Copy(dst Staging, src Texture) {
	d, ok1 := dst.(*cpuStaging)
	t, ok2 := src.(*cpuTexture)
	if !ok1 || !ok2 {
		return
	}
	copy(d.buf, t.pix)
}

func (cpuDevice) Map(s Staging) (Mapped, error) {
	st, ok := s.(*cpuStaging)
	if !ok || st.buf == nil {
		return Mapped{}, fmt.Errorf("screenshot: staging not mappable")
	}
	return Mapped{Data: st.buf, RowPitch: st.pitch}, nil
}

func (cpuDevice) Unmap(Staging) {}
