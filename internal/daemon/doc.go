// Package daemon holds the pieces toastackd wires together around the
// GTK surface: the registry mapping D-Bus ids to toast keys, the notifier
// for the daemon's own toasts, and the config hot-reload watcher.
package daemon
