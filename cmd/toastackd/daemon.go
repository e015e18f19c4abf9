package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastack/internal/audio"
	"github.com/jmylchreest/toastack/internal/config"
	"github.com/jmylchreest/toastack/internal/daemon"
	"github.com/jmylchreest/toastack/internal/dbus"
	"github.com/jmylchreest/toastack/internal/display"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/store"
	"github.com/jmylchreest/toastack/internal/theme"
)

// toastd wires the D-Bus side to the overlay. Notifications arrive on the
// D-Bus goroutine and land in the store; everything touching the surface
// runs on the GTK main loop.
type toastd struct {
	logger     *slog.Logger
	cfg        atomic.Pointer[config.Config]
	configPath string
	monitor    bool

	store    *store.Store
	registry *daemon.Registry
	notifier *daemon.InternalNotifier
	// audio and server are read from the D-Bus goroutine.
	audio  atomic.Pointer[audio.Manager]
	server atomic.Pointer[dbus.Server]

	mirror   *dbus.Monitor
	surface  *display.Surface
	expiry   *daemon.Expiry
	theme    *theme.Theme
	themes   *theme.Watcher
	watcher  *daemon.ConfigWatcher
	changes  <-chan store.ChangeEvent
	syncing  atomic.Bool
	cancelFn context.CancelFunc
}

func newDaemon(cfg *config.Config, configPath string, monitor bool, logger *slog.Logger) *toastd {
	d := &toastd{
		logger:     logger,
		configPath: configPath,
		monitor:    monitor,
		store:      store.NewStore(cfg.DefaultCategory()),
		registry:   daemon.NewRegistry(),
		notifier:   daemon.NewInternalNotifier(logger),
	}
	d.cfg.Store(cfg)
	return d
}

func (d *toastd) config() *config.Config {
	return d.cfg.Load()
}

// start runs on the GTK main loop from the activate signal.
func (d *toastd) start(parent context.Context, app *gtk.Application) error {
	ctx, cancel := context.WithCancel(parent)
	d.cancelFn = cancel
	cfg := d.config()

	d.loadTheme(ctx, cfg.Display.Theme)

	css := ""
	if d.theme != nil {
		css = d.theme.CSS
	}
	surface, err := display.NewSurface(app, display.Options{
		Config:   cfg,
		CSS:      css,
		OnClosed: d.closed,
		Logger:   d.logger,
	})
	if err != nil {
		return err
	}
	d.surface = surface
	d.expiry = daemon.NewExpiry(display.NewScheduler(), d.expired)

	d.changes = d.store.Subscribe()
	go d.forwardChanges(ctx)

	if d.monitor {
		d.mirror = dbus.NewMonitor(d.logger)
		d.mirror.SetNotifyHandler(d.notify)
		if err := d.mirror.Start(); err != nil {
			return err
		}
	} else {
		player := audio.NewManager(cfg, d.logger)
		player.Start(ctx)
		d.audio.Store(player)

		server := dbus.NewServer(d.logger)
		server.SetServerInfo(dbus.ServerInfo{
			Name:        appName,
			Vendor:      "toastack",
			Version:     version,
			SpecVersion: "1.2",
		})
		server.SetNotifyHandler(d.notify)
		server.SetCloseHandler(d.closeRequested)
		d.server.Store(server)
		if err := server.Start(); err != nil {
			return err
		}
		d.notifier.SetNotifyHandler(server.NotifyInternal)
	}

	d.watcher = daemon.NewConfigWatcher(d.configPath, d.logger)
	d.watcher.SetReloadCallback(func(cfg *config.Config) {
		glib.IdleAdd(func() { d.reload(ctx, cfg) })
	})
	d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
	d.watcher.Start(ctx, cfg)
	return nil
}

// stop is safe to call more than once.
func (d *toastd) stop() {
	if d.cancelFn != nil {
		d.cancelFn()
	}
	if d.watcher != nil {
		d.watcher.Stop()
		d.watcher = nil
	}
	if d.themes != nil {
		d.themes.Stop()
		d.themes = nil
	}
	// Stop the producers before the audio manager they feed.
	if server := d.server.Swap(nil); server != nil {
		if err := server.Stop(); err != nil {
			d.logger.Warn("error stopping D-Bus server", "error", err)
		}
	}
	if d.mirror != nil {
		if err := d.mirror.Stop(); err != nil {
			d.logger.Warn("error stopping monitor", "error", err)
		}
		d.mirror = nil
	}
	if a := d.audio.Swap(nil); a != nil {
		a.Stop()
	}
	if d.surface != nil {
		d.surface.Destroy()
		d.surface = nil
	}
	_ = d.store.Close()
}

// notify runs on the D-Bus goroutine.
func (d *toastd) notify(n *dbus.Notification, id uint32) {
	reg, err := d.registry.Register(n, id)
	if err != nil {
		d.logger.Error("failed to register notification", "id", id, "error", err)
		return
	}
	if server := d.server.Load(); reg.Replaced != 0 && server != nil {
		// The stack tag moved this toast to a new id.
		if err := server.CloseWithReason(reg.Replaced, dbus.CloseReasonUndefined); err != nil {
			d.logger.Debug("failed to close replaced notification", "id", reg.Replaced, "error", err)
		}
	}

	cfg := d.config()
	toast := n.Toast(reg.Key, time.Now())
	if err := d.store.Add(toast, "dbus"); err != nil {
		d.logger.Warn("notification rejected", "id", id, "toast_id", reg.Key, "error", err)
		return
	}
	d.logger.Info("notification received", "id", id, "toast_id", reg.Key, "app_name", n.AppName, "category", toast.Category)

	if a := d.audio.Load(); a != nil {
		go func() {
			err := a.Play(audio.Request{
				Category: toast.EffectiveCategory(cfg.DefaultCategory()),
				File:     n.SoundFile(),
				Suppress: n.SuppressSound(),
			})
			if err != nil {
				d.logger.Debug("failed to play sound", "toast_id", reg.Key, "error", err)
				d.notifier.NotifyAudioError(err)
			}
		}()
	}

	expire := n.Expiry(cfg.Toast.Timeout.Duration())
	glib.IdleAdd(func() {
		if d.expiry != nil {
			d.expiry.Set(reg.Key, expire)
		}
	})
}

// expired runs on the GTK main loop when a toast's timeout elapses.
func (d *toastd) expired(key string) {
	if d.surface != nil {
		d.surface.Close(key, dbus.CloseReasonExpired)
	}
}

// closeRequested runs on the D-Bus goroutine for CloseNotification.
func (d *toastd) closeRequested(id uint32) {
	key, ok := d.registry.Key(id)
	if !ok {
		return
	}
	glib.IdleAdd(func() {
		if d.surface != nil {
			d.surface.Close(key, dbus.CloseReasonClosed)
		}
	})
}

// closed runs on the GTK main loop once a toast has left the stack.
func (d *toastd) closed(key string, reason dbus.CloseReason) {
	if d.expiry != nil {
		d.expiry.Cancel(key)
	}
	d.store.Remove(key)
	id, ok := d.registry.Remove(key)
	server := d.server.Load()
	if !ok || server == nil {
		return
	}
	if err := server.CloseWithReason(id, reason); err != nil {
		d.logger.Warn("failed to emit close signal", "id", id, "error", err)
	}
}

// forwardChanges turns store changes into one surface sync per burst.
func (d *toastd) forwardChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-d.changes:
			if !ok {
				return
			}
			if d.syncing.Swap(true) {
				continue
			}
			glib.IdleAdd(func() {
				d.syncing.Store(false)
				if d.surface == nil {
					return
				}
				err := d.surface.Sync(d.store.All())
				switch {
				case errors.Is(err, lifecycle.ErrDuplicateToast):
					// Replacements of exiting toasts leave with them.
					d.logger.Debug("sync skipped toasts", "error", err)
				case err != nil:
					d.logger.Error("failed to sync surface", "error", err)
				}
			})
		}
	}
}

// reload runs on the GTK main loop with a validated config.
func (d *toastd) reload(ctx context.Context, cfg *config.Config) {
	prev := d.config()
	d.cfg.Store(cfg)

	if d.surface != nil {
		d.surface.UpdateConfig(cfg)
	}
	if a := d.audio.Load(); a != nil {
		a.UpdateConfig(cfg)
	}
	if cfg.Display.Theme != prev.Display.Theme {
		if d.loadTheme(ctx, cfg.Display.Theme) && d.surface != nil {
			d.surface.SetCSS(d.theme.CSS)
			d.notifier.NotifyThemeReloaded(d.theme.Name)
		}
	}
	d.notifier.NotifyConfigReloaded()
}

// loadTheme resolves name and starts watching it. On failure the current
// theme stays active.
func (d *toastd) loadTheme(ctx context.Context, name string) bool {
	dir, err := theme.ThemesDir()
	if err != nil {
		d.logger.Debug("no user theme directory", "error", err)
	}
	th, err := theme.Load(name, dir)
	if err != nil {
		d.logger.Warn("failed to load theme", "theme", name, "error", err)
		d.notifier.NotifyThemeError(err)
		if d.theme != nil {
			return false
		}
		th = theme.Default()
	}

	if d.themes != nil {
		d.themes.Stop()
	}
	d.theme = th
	d.themes = theme.NewWatcher(th, func(css string) {
		glib.IdleAdd(func() {
			if d.surface != nil {
				d.surface.SetCSS(css)
			}
		})
		d.notifier.NotifyThemeReloaded(th.Name)
	}, d.logger)
	d.themes.Start(ctx)
	d.logger.Info("theme loaded", "theme", th.Name, "path", th.Path)
	return true
}
