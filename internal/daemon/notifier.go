package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastack/internal/dbus"
	"github.com/jmylchreest/toastack/internal/model"
)

// Level is the severity of an internal notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) category() model.Category {
	switch l {
	case LevelWarning:
		return model.CategoryWarning
	case LevelError:
		return model.CategoryError
	default:
		return model.CategoryInfo
	}
}

// internalExpiry is how long the daemon's own toasts stay on screen.
const internalExpiry = 5 * time.Second

// InternalNotifier raises toasts about the daemon itself. Repeats of the
// same key within the minimum interval are dropped.
type InternalNotifier struct {
	mu          sync.Mutex
	logger      *slog.Logger
	handler     func(n *dbus.Notification) uint32
	last        map[string]time.Time
	minInterval time.Duration
	enabled     bool
	now         func() time.Time
}

// NewInternalNotifier creates an enabled notifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		last:        make(map[string]time.Time),
		minInterval: 5 * time.Second,
		enabled:     true,
		now:         time.Now,
	}
}

// SetNotifyHandler sets where notifications are delivered, normally
// dbus.Server.NotifyInternal.
func (n *InternalNotifier) SetNotifyHandler(h func(n *dbus.Notification) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *InternalNotifier) SetMinInterval(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = d
}

// Notify sends a notification unless it is disabled or rate-limited.
// It reports whether the notification was delivered.
func (n *InternalNotifier) Notify(key, summary, body string, level Level) bool {
	n.mu.Lock()
	if !n.enabled || n.handler == nil {
		n.mu.Unlock()
		return false
	}
	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.last[key] = now
	handler := n.handler
	n.mu.Unlock()

	note := &dbus.Notification{
		AppName: "toastackd",
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"category":  godbus.MakeVariant(string(level.category())),
			"transient": godbus.MakeVariant(true),
		},
		ExpireTimeout: int32(internalExpiry / time.Millisecond),
	}
	handler(note)
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded", "toastackd configuration has been reloaded.", LevelInfo)
}

// NotifyConfigError reports a config reload that was rejected. The
// previous configuration stays active.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error", "Failed to reload configuration: "+err.Error(), LevelWarning)
}

// NotifyThemeReloaded reports a reloaded theme.
func (n *InternalNotifier) NotifyThemeReloaded(name string) {
	n.Notify("theme-reload", "Theme Reloaded", "Theme '"+name+"' has been reloaded.", LevelInfo)
}

// NotifyThemeError reports a theme that failed to load.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme Error", "Failed to load theme: "+err.Error(), LevelWarning)
}

// NotifyAudioError reports a failed arrival sound.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio Error", "Failed to play sound: "+err.Error(), LevelWarning)
}
