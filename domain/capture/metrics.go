package capture

import (
	"sync/atomic"
	"time"
)

// counters is the engine's lock-free instrumentation block.
type counters struct {
	published   atomic.Uint64
	dropped     atomic.Uint64
	failed      atomic.Uint64
	resizes     atomic.Uint64
	decodeNanos atomic.Uint64
	lastLog     atomic.Int64
}

func (c *counters) snapshot(latest *CapturedFrame) CaptureStats {
	published := c.published.Load()
	total := c.decodeNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if published > 0 && total > 0 {
		avg = time.Duration(total / published)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	st := CaptureStats{
		Published:       published,
		DroppedOnResize: c.dropped.Load(),
		Failed:          c.failed.Load(),
		Resizes:         c.resizes.Load(),
		AvgDecode:       avg,
		AvgDecodeMicros: avgMicros,
	}
	if latest != nil {
		st.LastPublish = latest.CapturedAt
		st.Sequence = latest.Sequence
		if !latest.CapturedAt.IsZero() {
			st.LatestFrameAge = time.Since(latest.CapturedAt)
		}
	}
	return st
}

// due reports whether interval has elapsed since the last stats log and
// claims the slot if so.
func (c *counters) due(now time.Time, interval time.Duration) bool {
	last := c.lastLog.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < interval {
		return false
	}
	return c.lastLog.CompareAndSwap(last, now.UnixNano())
}
