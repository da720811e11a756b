package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
)

var discardLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

type fakeCapture struct {
	startErr   error
	frameAfter int32 // GetLatestFrame calls before a frame appears; <0 never
	calls      atomic.Int32
	running    atomic.Bool
	stops      int
}

func (f *fakeCapture) StartCapture() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running.Store(true)
	return nil
}
func (f *fakeCapture) StopCapture()                { f.stops++; f.running.Store(false) }
func (f *fakeCapture) Running() bool               { return f.running.Load() }
func (f *fakeCapture) Stats() capture.CaptureStats { return capture.CaptureStats{} }
func (f *fakeCapture) GetLatestFrame() *capture.CapturedFrame {
	n := f.calls.Add(1)
	if f.frameAfter < 0 || n <= f.frameAfter {
		return nil
	}
	return &capture.CapturedFrame{
		Pixels:   make([]byte, 4*2*capture.BytesPerPixel),
		Metadata: capture.FrameMetadata{Width: 4, Height: 2, RowPitch: 4 * capture.BytesPerPixel},
	}
}

type fakeHDR struct{ info hdr.DisplayHdrInfo }

func (f fakeHDR) GetPrimaryDisplayHdrInfo() hdr.DisplayHdrInfo { return f.info }

type fakePreview struct {
	rect      selection.Rect
	err       error
	gotFrame  *capture.CapturedFrame
	gotInfo   hdr.DisplayHdrInfo
	runningAt bool
	cap       *fakeCapture
}

func (f *fakePreview) Show(_ context.Context, frame *capture.CapturedFrame, info hdr.DisplayHdrInfo) (selection.Rect, error) {
	f.gotFrame, f.gotInfo = frame, info
	if f.cap != nil {
		f.runningAt = f.cap.Running()
	}
	return f.rect, f.err
}

func newTestApp(c *fakeCapture, p *fakePreview) *App {
	p.cap = c
	return &App{
		Capture:            c,
		HDR:                fakeHDR{info: hdr.Fallback()},
		Preview:            p,
		Logger:             discardLogger,
		FirstFrameAttempts: 5,
		FirstFramePoll:     time.Millisecond,
	}
}

func TestRun_Confirmed(t *testing.T) {
	c := &fakeCapture{frameAfter: 2}
	p := &fakePreview{rect: selection.Rect{X1: 1, Y1: 1, X2: 3, Y2: 2}}
	res, err := newTestApp(c, p).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cancelled || res.Rect != p.rect {
		t.Fatalf("unexpected result %+v", res)
	}
	if p.runningAt {
		t.Fatalf("capture must be stopped before the preview opens")
	}
	if p.gotFrame == nil || p.gotInfo != hdr.Fallback() {
		t.Fatalf("preview got frame=%v info=%+v", p.gotFrame, p.gotInfo)
	}
	if res.Frame.Width != 4 || c.stops != 1 {
		t.Fatalf("frame=%+v stops=%d", res.Frame, c.stops)
	}
}

func TestRun_Cancelled(t *testing.T) {
	c := &fakeCapture{}
	p := &fakePreview{}
	res, err := newTestApp(c, p).Run(context.Background())
	if err != nil {
		t.Fatalf("cancel is not an error: %v", err)
	}
	if !res.Cancelled || res.Rect.IsValid() {
		t.Fatalf("expected cancelled result, got %+v", res)
	}
}

func TestRun_FirstFrameTimeout(t *testing.T) {
	c := &fakeCapture{frameAfter: -1}
	p := &fakePreview{}
	_, err := newTestApp(c, p).Run(context.Background())
	if !errors.Is(err, capture.ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	if p.gotFrame != nil {
		t.Fatalf("preview must not open without a frame")
	}
	if c.Running() || c.stops != 1 {
		t.Fatalf("capture should be stopped on timeout")
	}
	if got := c.calls.Load(); got != 6 {
		t.Fatalf("expected attempts+1 polls, got %d", got)
	}
}

func TestRun_ContextCancelledWhileWaiting(t *testing.T) {
	c := &fakeCapture{frameAfter: -1}
	p := &fakePreview{}
	a := newTestApp(c, p)
	a.FirstFramePoll = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.Running() {
		t.Fatalf("capture should be stopped")
	}
}

func TestRun_StartFailure(t *testing.T) {
	boom := errors.New("no d3d device")
	c := &fakeCapture{startErr: boom}
	p := &fakePreview{}
	_, err := newTestApp(c, p).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped start error, got %v", err)
	}
}

func TestRun_PreviewError(t *testing.T) {
	c := &fakeCapture{}
	p := &fakePreview{err: errors.New("no surface")}
	if _, err := newTestApp(c, p).Run(context.Background()); err == nil {
		t.Fatalf("expected preview error")
	}
}
