package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastack/internal/model"
)

// CloseReason is the reason carried by NotificationClosed.
// Values are fixed by the freedesktop notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired means the notification timed out.
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed means the user dismissed the toast.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed means CloseNotification was called.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined covers everything else.
	CloseReasonUndefined CloseReason = 4
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Notification holds the arguments of a Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

func hint[T any](hints map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := hints[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

// Urgency returns the urgency hint, model.UrgencyNormal when absent.
func (n *Notification) Urgency() int {
	if b, ok := hint[byte](n.Hints, "urgency"); ok {
		return int(b)
	}
	return model.UrgencyNormal
}

// Category returns the category hint, e.g. "email.arrived" or "success".
func (n *Notification) Category() string {
	s, _ := hint[string](n.Hints, "category")
	return s
}

// DesktopEntry returns the desktop-entry hint.
func (n *Notification) DesktopEntry() string {
	s, _ := hint[string](n.Hints, "desktop-entry")
	return s
}

// SoundFile returns the sound-file hint.
func (n *Notification) SoundFile() string {
	s, _ := hint[string](n.Hints, "sound-file")
	return s
}

// SuppressSound reports whether the suppress-sound hint is set.
func (n *Notification) SuppressSound() bool {
	b, _ := hint[bool](n.Hints, "suppress-sound")
	return b
}

// Transient reports whether the transient hint is set.
func (n *Notification) Transient() bool {
	b, _ := hint[bool](n.Hints, "transient")
	return b
}

// StackTag returns the tag under which notifications replace each other.
// The dunst-specific hint wins over the generic one.
func (n *Notification) StackTag() string {
	if s, ok := hint[string](n.Hints, "x-dunst-stack-tag"); ok && s != "" {
		return s
	}
	s, _ := hint[string](n.Hints, "stack-tag")
	return s
}

// Expiry returns how long the toast stays before expiring, zero for never.
// def applies when the sender asked for the server default.
func (n *Notification) Expiry(def time.Duration) time.Duration {
	switch {
	case n.ExpireTimeout < 0:
		return def
	case n.ExpireTimeout == 0:
		return 0
	default:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	}
}

// Toast converts the notification into a toast with the given id.
// The summary becomes the title, falling back to the application name.
func (n *Notification) Toast(id string, now time.Time) model.Toast {
	title := n.Summary
	if title == "" {
		title = n.AppName
	}

	payload := make(map[string]any)
	if n.AppName != "" {
		payload["app_name"] = n.AppName
	}
	if n.AppIcon != "" {
		payload["app_icon"] = n.AppIcon
	}
	if entry := n.DesktopEntry(); entry != "" {
		payload["desktop_entry"] = entry
	}

	t := model.Toast{
		ID:        id,
		Title:     title,
		Message:   n.Body,
		Category:  model.CategoryFromHints(n.Category(), n.Urgency()),
		CreatedAt: now,
	}
	if len(payload) > 0 {
		t.Payload = payload
	}
	return t
}

// ServerCapabilities lists the capabilities advertised by toastackd.
var ServerCapabilities = []string{
	"body",
	"sound",
	"x-dunst-stack-tag",
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the server information for toastackd.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastackd",
		Vendor:      "toastack",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}
