//go:build !windows

package capture

import (
	"fmt"
	"log/slog"
)

const hasWGC = false

func newWGC(*slog.Logger) (Backend, error) {
	return nil, fmt.Errorf("wgc: %w", ErrUnsupported)
}
