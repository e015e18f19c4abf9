// Package dbus speaks the org.freedesktop.Notifications interface.
// Server receives Notify and CloseNotification calls and emits
// NotificationClosed with the reason a toast went away; Client sends
// notifications to whichever server owns the bus name; Monitor observes
// Notify traffic without owning the name.
package dbus
