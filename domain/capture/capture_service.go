package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// Service is the capture surface used by the orchestrator.
type Service interface {
	StartCapture() error
	StopCapture()
	GetLatestFrame() *CapturedFrame
	Running() bool
	Stats() CaptureStats
}

// Engine pulls frames from a Backend, reads them back into CPU buffers and
// keeps the most recent one. Frame arrival runs on the backend's thread; the
// public methods may be called from any goroutine.
type Engine struct {
	backend Backend
	logger  *slog.Logger

	lifecycle sync.Mutex // serialises StartCapture/StopCapture
	session   Session
	capturing atomic.Bool
	pool      atomic.Pointer[framePool]

	mu       sync.Mutex // guards latest
	latest   *CapturedFrame
	sequence uint64

	stagingMu   sync.Mutex // guards staging across copy and map
	staging     Staging
	stagingDesc TextureDesc

	stats counters
}

// NewEngine returns an idle engine over backend.
func NewEngine(backend Backend, logger *slog.Logger) *Engine {
	return &Engine{backend: backend, logger: logger}
}

// StartCapture opens and starts a session. It is a no-op while capturing. On
// failure the engine stays idle and every partially created resource is
// released.
func (e *Engine) StartCapture() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.capturing.Load() {
		return nil
	}
	if e.backend == nil {
		return errors.New("capture: no backend")
	}
	session, err := e.backend.Open(e.onFrameArrived)
	if err != nil {
		return fmt.Errorf("capture: open session: %w", err)
	}
	e.pool.Store(newFramePool(session))
	e.capturing.Store(true)
	if err := session.Start(); err != nil {
		e.capturing.Store(false)
		e.pool.Store(nil)
		session.Close()
		return fmt.Errorf("capture: start session: %w", err)
	}
	e.session = session
	if e.logger != nil {
		sz := session.Size()
		e.logger.Info("capture started", "width", sz.Width, "height", sz.Height)
	}
	return nil
}

// StopCapture ends the session. The capturing flag is cleared before any
// teardown so in-flight callbacks abort. The latest frame is kept.
func (e *Engine) StopCapture() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if !e.capturing.Load() {
		return
	}
	e.capturing.Store(false)
	e.pool.Store(nil)
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
	e.releaseStaging()
	if e.logger != nil {
		st := e.Stats()
		e.logger.Info("capture stopped", "published", st.Published, "dropped", st.DroppedOnResize, "failed", st.Failed)
	}
}

// GetLatestFrame returns the most recently published frame or nil.
func (e *Engine) GetLatestFrame() *CapturedFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

func (e *Engine) Running() bool { return e.capturing.Load() }

func (e *Engine) Stats() CaptureStats {
	return e.stats.snapshot(e.GetLatestFrame())
}

func (e *Engine) onFrameArrived(src FrameSource) {
	defer recoverLog(e.logger, "capture frame handler panic")
	if !e.capturing.Load() {
		return
	}
	frame, ok := src.TryGetNextFrame()
	if !ok || frame == nil {
		return
	}
	defer frame.Close()

	if err := e.processFrame(frame); err != nil {
		e.stats.failed.Add(1)
		if e.logger != nil {
			e.logger.Debug("capture frame dropped", "error", err)
		}
	}
	if now := time.Now(); e.stats.due(now, captureStatsLogInterval) {
		e.logStats()
	}
}

func (e *Engine) processFrame(frame Frame) error {
	pool := e.pool.Load()
	if pool == nil {
		return nil
	}
	content := frame.ContentSize()
	resized, err := pool.observe(content)
	if resized {
		e.stats.resizes.Add(1)
		e.stats.dropped.Add(1)
		e.releaseStaging()
		if e.logger != nil {
			e.logger.Debug("capture pool recreated", "width", content.Width, "height", content.Height)
		}
		if err != nil {
			return fmt.Errorf("recreate pool: %w", err)
		}
		return nil
	}

	start := time.Now()
	tex, err := frame.Texture()
	if err != nil {
		return fmt.Errorf("frame texture: %w", err)
	}
	out, err := e.readBack(tex)
	if err != nil || out == nil {
		return err
	}
	e.stats.decodeNanos.Add(uint64(time.Since(start).Nanoseconds()))
	e.publish(out)
	return nil
}

// readBack copies tex into the staging resource and strips row padding into
// a freshly allocated buffer. A nil frame with nil error means capture was
// stopped meanwhile.
func (e *Engine) readBack(tex Texture) (*CapturedFrame, error) {
	desc := tex.Desc()
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("empty texture %dx%d", desc.Width, desc.Height)
	}
	dev := e.backend.Device()

	e.stagingMu.Lock()
	defer e.stagingMu.Unlock()
	if !e.capturing.Load() {
		return nil, nil
	}
	if e.staging == nil || e.stagingDesc != desc {
		if e.staging != nil {
			e.staging.Release()
			e.staging = nil
		}
		st, err := dev.CreateStaging(desc)
		if err != nil {
			return nil, fmt.Errorf("create staging: %w", err)
		}
		e.staging, e.stagingDesc = st, desc
	}

	dev.Copy(e.staging, tex)
	mapped, err := dev.Map(e.staging)
	if err != nil {
		return nil, fmt.Errorf("map staging: %w", err)
	}
	defer dev.Unmap(e.staging)

	pixels, err := stripRows(mapped, desc.Width, desc.Height)
	if err != nil {
		return nil, err
	}
	return &CapturedFrame{
		Pixels: pixels,
		Metadata: FrameMetadata{
			Width:    desc.Width,
			Height:   desc.Height,
			RowPitch: desc.Width * BytesPerPixel,
		},
	}, nil
}

// stripRows copies height rows of width texels out of a pitched mapping.
func stripRows(m Mapped, width, height uint32) ([]byte, error) {
	rowBytes := int(width) * BytesPerPixel
	pitch := int(m.RowPitch)
	if pitch < rowBytes {
		return nil, fmt.Errorf("row pitch %d below row size %d", pitch, rowBytes)
	}
	if need := (int(height)-1)*pitch + rowBytes; len(m.Data) < need {
		return nil, fmt.Errorf("mapped %d bytes, need %d", len(m.Data), need)
	}
	out := make([]byte, rowBytes*int(height))
	for y := 0; y < int(height); y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], m.Data[y*pitch:y*pitch+rowBytes])
	}
	return out, nil
}

func (e *Engine) publish(f *CapturedFrame) {
	e.mu.Lock()
	e.sequence++
	f.Sequence = e.sequence
	f.CapturedAt = time.Now()
	e.latest = f
	e.mu.Unlock()
	e.stats.published.Add(1)
}

func (e *Engine) releaseStaging() {
	e.stagingMu.Lock()
	defer e.stagingMu.Unlock()
	if e.staging != nil {
		e.staging.Release()
		e.staging = nil
	}
	e.stagingDesc = TextureDesc{}
}

func (e *Engine) logStats() {
	if e.logger == nil {
		return
	}
	st := e.Stats()
	e.logger.Debug("capture.stats",
		"published", st.Published,
		"dropped_resize", st.DroppedOnResize,
		"failed", st.Failed,
		"avg_decode", st.AvgDecode,
		"age", st.LatestFrameAge,
	)
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}

var _ Service = (*Engine)(nil)
