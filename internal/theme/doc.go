// Package theme resolves CSS themes for the toastack GTK surface.
// Themes come from a file path, the user's themes directory
// (~/.config/toastack/themes/) or the bundled set, in that order.
// The package does no GTK work; display applies the resolved CSS.
package theme
