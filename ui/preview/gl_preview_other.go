//go:build !windows

package preview

import "log/slog"

const hasGL = false

func newGLPreview(Options, *slog.Logger) Preview { return nil }
