package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastack/internal/config"
)

// initLayerShell turns window into a non-exclusive overlay that never takes
// keyboard focus.
func initLayerShell(window *gtk.Window) {
	layershell.InitForWindow(window)
	layershell.SetLayer(window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(window, 0)
	layershell.SetKeyboardMode(window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(window, "toastack")
}

// anchor pins window to the configured screen corner.
func anchor(window *gtk.Window, d config.DisplayConfig) {
	edges := []layershell.LayerShellEdge{
		layershell.LayerShellEdgeTop,
		layershell.LayerShellEdgeBottom,
		layershell.LayerShellEdgeLeft,
		layershell.LayerShellEdgeRight,
	}
	for _, e := range edges {
		layershell.SetAnchor(window, e, false)
		layershell.SetMargin(window, e, 0)
	}

	vertical := layershell.LayerShellEdgeTop
	var horizontal layershell.LayerShellEdge
	hasHorizontal := true

	switch config.Position(d.Position) {
	case config.PositionTopLeft:
		horizontal = layershell.LayerShellEdgeLeft
	case config.PositionTopCenter:
		hasHorizontal = false
	case config.PositionBottomRight:
		vertical = layershell.LayerShellEdgeBottom
		horizontal = layershell.LayerShellEdgeRight
	case config.PositionBottomLeft:
		vertical = layershell.LayerShellEdgeBottom
		horizontal = layershell.LayerShellEdgeLeft
	case config.PositionBottomCenter:
		vertical = layershell.LayerShellEdgeBottom
		hasHorizontal = false
	default: // top-right
		horizontal = layershell.LayerShellEdgeRight
	}

	layershell.SetAnchor(window, vertical, true)
	layershell.SetMargin(window, vertical, d.OffsetY)
	if hasHorizontal {
		layershell.SetAnchor(window, horizontal, true)
		layershell.SetMargin(window, horizontal, d.OffsetX)
	}
}

// placeOnMonitor moves window to the configured monitor.
// Monitor 0 leaves the choice to the compositor; numbers are 1-indexed and
// an unavailable monitor falls back to the first one.
func placeOnMonitor(window *gtk.Window, monitor int, logger *slog.Logger) {
	if monitor == 0 {
		return
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		logger.Warn("no monitors available")
		return
	}

	index := uint(monitor - 1)
	if index >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", monitor,
			"available", monitors.NItems(),
		)
		index = 0
	}

	if m := wrapMonitor(monitors.Item(index)); m != nil {
		layershell.SetMonitor(window, m)
	}
}

// wrapMonitor converts a list item into a gdk.Monitor. gotk4 keeps its own
// wrapper private; gdk.Monitor only embeds the object pointer.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	return (*gdk.Monitor)(unsafe.Pointer(&monitor{Object: obj}))
}
