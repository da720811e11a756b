package capture

import (
	"fmt"
	"log/slog"
	"time"
)

// Backend kinds accepted by NewBackend.
const (
	BackendAuto       = "auto"
	BackendWGC        = "wgc"
	BackendScreenshot = "screenshot"
)

// NewBackend builds the named backend. "auto" picks hardware capture where
// the platform has it and screenshots elsewhere.
func NewBackend(kind string, interval time.Duration, logger *slog.Logger) (Backend, error) {
	switch kind {
	case "", BackendAuto:
		if hasWGC {
			return newWGC(logger)
		}
		return NewScreenshotBackend(interval, logger), nil
	case BackendWGC:
		return newWGC(logger)
	case BackendScreenshot:
		return NewScreenshotBackend(interval, logger), nil
	default:
		return nil, fmt.Errorf("capture: unknown backend %q", kind)
	}
}
