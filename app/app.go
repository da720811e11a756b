// Package app runs one capture-then-select session: grab an HDR frame of the
// primary display, show it fullscreen and return the rectangle the user
// picked.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/domain/selection"
	"github.com/soocke/hdr-snip/ui/preview"
)

// HdrInfoSource reports the primary display's HDR characteristics.
type HdrInfoSource interface {
	GetPrimaryDisplayHdrInfo() hdr.DisplayHdrInfo
}

// Result is the outcome of one session. A cancelled session carries the
// zero Rect.
type Result struct {
	Rect      selection.Rect
	Cancelled bool
	Info      hdr.DisplayHdrInfo
	Frame     capture.FrameMetadata
}

// App wires capture, HDR metadata and the preview together.
type App struct {
	Capture capture.Service
	HDR     HdrInfoSource
	Preview preview.Preview
	Logger  *slog.Logger

	// FirstFrameAttempts x FirstFramePoll bounds the wait for the first
	// published frame.
	FirstFrameAttempts int
	FirstFramePoll     time.Duration
}

// Run captures a frame, stops capture and runs the selection session.
// Capture is always stopped before the preview opens so the preview shows a
// still image.
func (a *App) Run(ctx context.Context) (Result, error) {
	if err := a.Capture.StartCapture(); err != nil {
		return Result{}, fmt.Errorf("start capture: %w", err)
	}
	frame, err := a.waitFirstFrame(ctx)
	a.Capture.StopCapture()
	if err != nil {
		return Result{}, err
	}
	if a.Logger != nil {
		st := a.Capture.Stats()
		a.Logger.Info("frame captured", "w", frame.Metadata.Width, "h", frame.Metadata.Height,
			"sequence", frame.Sequence, "published", st.Published, "dropped_on_resize", st.DroppedOnResize)
	}

	info := a.HDR.GetPrimaryDisplayHdrInfo()
	if a.Logger != nil {
		a.Logger.Info("display hdr info", "sdr_white", info.SDRWhiteLevel, "peak", info.PeakBrightness,
			"min", info.MinLuminance, "max", info.MaxLuminance, "max_full_frame", info.MaxFullFrameLuminance)
	}

	rect, err := a.Preview.Show(ctx, frame, info)
	if err != nil {
		return Result{}, fmt.Errorf("preview: %w", err)
	}
	return Result{Rect: rect, Cancelled: !rect.IsValid(), Info: info, Frame: frame.Metadata}, nil
}

func (a *App) waitFirstFrame(ctx context.Context) (*capture.CapturedFrame, error) {
	attempts, poll := a.FirstFrameAttempts, a.FirstFramePoll
	if attempts <= 0 {
		attempts = 100
	}
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	t := time.NewTicker(poll)
	defer t.Stop()
	for i := 0; i < attempts; i++ {
		if f := a.Capture.GetLatestFrame(); f != nil {
			return f, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if f := a.Capture.GetLatestFrame(); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w after %v", capture.ErrNoFrame, time.Duration(attempts)*poll)
}
