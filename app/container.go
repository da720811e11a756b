package app

import (
	"log/slog"

	"github.com/soocke/hdr-snip/config"
	"github.com/soocke/hdr-snip/domain/action"
	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/hdr"
	"github.com/soocke/hdr-snip/ui/preview"
)

// Container assembles the backend, services and preview from config.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Backend capture.Backend
	Engine  *capture.Engine
	HDR     *hdr.Provider
	Keymap  *action.Keymap
	Preview preview.Preview
	App     *App
}

// BuildContainer constructs all components. Nothing is started.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	km, err := action.NewKeymap(cfg.AcceptKeys, cfg.CancelKeys)
	if err != nil {
		return nil, err
	}
	c.Keymap = km
	backend, err := capture.NewBackend(cfg.Backend, cfg.ScreenshotInterval.Std(), logger)
	if err != nil {
		return nil, err
	}
	c.Backend = backend
	c.Engine = capture.NewEngine(backend, logger)
	c.HDR = hdr.NewProvider(logger)
	c.Preview, err = preview.New(preview.Options{
		Kind:      cfg.Preview,
		Keymap:    km,
		Tolerance: cfg.Tolerance,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.App = &App{
		Capture:            c.Engine,
		HDR:                c.HDR,
		Preview:            c.Preview,
		Logger:             logger,
		FirstFrameAttempts: cfg.FirstFrameAttempts,
		FirstFramePoll:     cfg.FirstFramePoll.Std(),
	}
	return c, nil
}

// Close stops capture and releases backend-owned devices.
func (c *Container) Close() {
	if c.Engine != nil {
		c.Engine.StopCapture()
	}
	if r, ok := c.Backend.(interface{ Release() }); ok {
		r.Release()
	}
}
