package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.design/x/clipboard"

	"github.com/soocke/hdr-snip/app"
	"github.com/soocke/hdr-snip/config"
	"github.com/soocke/hdr-snip/debug"
)

// Exit codes.
const (
	exitConfirmed = 0
	exitError     = 1
	exitCancelled = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("hdr-snip", flag.ContinueOnError)
	cfgPath := fs.String("config", "hdr-snip.json", "path to JSON config")
	envPath := fs.String("env", ".env", "path to dotenv overrides")
	backend := fs.String("backend", "", "capture backend: auto, wgc, screenshot")
	previewKind := fs.String("preview", "", "preview surface: auto, gl, tk")
	debugFlag := fs.Bool("debug", false, "debug logging and runtime metrics")
	clip := fs.Bool("clipboard", false, "copy x,y,w,h to the clipboard")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	// Base config from file, then env, then flags
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	if err := cfg.ApplyEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "preview":
			cfg.Preview = *previewKind
		case "debug":
			cfg.Debug = *debugFlag
		case "clipboard":
			cfg.Clipboard = *clip
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := app.BuildContainer(cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		return exitError
	}
	defer c.Close()

	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, logger)
		debug.StartMemLogger(ctx, 5*time.Second, logger)
		debug.StartCaptureStatsLogger(ctx, time.Second, c.Engine, logger)
	}

	res, err := c.App.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stdout, formatResult(app.Result{Cancelled: true}))
			return exitCancelled
		}
		logger.Error("session failed", "error", err)
		return exitError
	}
	fmt.Fprintln(stdout, formatResult(res))
	if res.Cancelled {
		return exitCancelled
	}
	if cfg.Clipboard {
		if err := copyToClipboard(res); err != nil {
			logger.Warn("clipboard unavailable", "error", err)
		}
	}
	return exitConfirmed
}

func formatResult(res app.Result) string {
	if res.Cancelled || !res.Rect.IsValid() {
		return "selection cancelled"
	}
	r := res.Rect
	return fmt.Sprintf("selection x=%d y=%d w=%d h=%d", r.Left(), r.Top(), r.Width(), r.Height())
}

func clipboardText(res app.Result) string {
	r := res.Rect
	return fmt.Sprintf("%d,%d,%d,%d", r.Left(), r.Top(), r.Width(), r.Height())
}

func copyToClipboard(res app.Result) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(clipboardText(res)))
	return nil
}
