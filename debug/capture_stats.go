package debug

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/hdr-snip/domain/capture"
)

// StatsSource exposes capture counters.
type StatsSource interface {
	Stats() capture.CaptureStats
}

// StartCaptureStatsLogger logs capture counters every interval while they
// change, until ctx is done.
func StartCaptureStatsLogger(ctx context.Context, interval time.Duration, src StatsSource, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		var last capture.CaptureStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			st := src.Stats()
			if !changed(last, st) {
				continue
			}
			last = st
			logCaptureStats(logger, st)
		}
	}()
}

func changed(a, b capture.CaptureStats) bool {
	return a.Published != b.Published || a.Failed != b.Failed ||
		a.DroppedOnResize != b.DroppedOnResize || a.Resizes != b.Resizes
}

func logCaptureStats(logger *slog.Logger, st capture.CaptureStats) {
	logger.Info("capture-stats",
		slog.Uint64("published", st.Published),
		slog.Uint64("dropped_on_resize", st.DroppedOnResize),
		slog.Uint64("failed", st.Failed),
		slog.Uint64("resizes", st.Resizes),
		slog.Float64("avg_decode_us", st.AvgDecodeMicros),
		slog.Duration("latest_frame_age", st.LatestFrameAge),
		slog.Uint64("sequence", st.Sequence),
	)
}
