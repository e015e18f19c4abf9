// Package main is the entry point for the toastackd notification daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/toastack/internal/config"
)

const (
	appID   = "io.github.jmylchreest.toastackd"
	appName = "toastackd"
)

// Build-time variables
var version = "dev"

func main() {
	monitorMode := flag.Bool("monitor", false, "Mirror another notification daemon (passive, no sounds, no D-Bus name)")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/toastack/config.toml)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, path, *monitorMode, logger))
}

func run(cfg *config.Config, configPath string, monitor bool, logger *slog.Logger) int {
	mode := "daemon"
	if monitor {
		mode = "monitor"
	}
	logger.Info("starting toastackd", "version", version, "mode", mode)

	app := adw.NewApplication(appID, 0)
	d := newDaemon(cfg, configPath, monitor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running atomic.Bool

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Swap(true) {
			logger.Warn("application already running")
			return
		}
		if err := d.start(ctx, &app.Application); err != nil {
			logger.Error("failed to start", "error", err)
			d.stop()
			app.Quit()
			return
		}
		// The overlay window hides while empty; hold the app open.
		app.Hold()
		logger.Info("toastackd ready", "mode", mode)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		d.stop()
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	logger.Info("toastackd stopped")
	return 0
}
