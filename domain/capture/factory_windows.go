//go:build windows

package capture

import "log/slog"

const hasWGC = true

func newWGC(logger *slog.Logger) (Backend, error) {
	b, err := NewWGCBackend(logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
