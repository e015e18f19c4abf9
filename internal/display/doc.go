// Package display is the GTK4 surface of toastack. It shows the stack in
// a single layer-shell overlay window: cards live in a gtk.Fixed, are
// moved to their layout placements, and are dragged through one
// gtk.GestureDrag on the container. All calls must happen on the GTK
// main loop.
package display
