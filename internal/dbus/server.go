package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// Interface is the notification interface name.
	Interface = "org.freedesktop.Notifications"
	// Path is the notification object path.
	Path = "/org/freedesktop/Notifications"
	// BusName is the bus name the server claims.
	BusName = "org.freedesktop.Notifications"
)

// ErrNameTaken is returned when another daemon owns the bus name.
var ErrNameTaken = errors.New("notification bus name already taken")

// NotifyHandler is called for each Notify call with the id assigned to it.
type NotifyHandler func(n *Notification, id uint32)

// CloseHandler is called when CloseNotification is requested for an
// active id. The handler decides when the toast is really gone and then
// reports it with CloseWithReason.
type CloseHandler func(id uint32)

// Server implements the org.freedesktop.Notifications D-Bus interface.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger
	nextID atomic.Uint32

	onNotify NotifyHandler
	onClose  CloseHandler

	mu      sync.RWMutex
	active  map[uint32]bool
	info    ServerInfo
	running bool
}

// NewServer creates a Server. Handlers must be set before Start.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		active: make(map[uint32]bool),
		info:   DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler for incoming notifications.
func (s *Server) SetNotifyHandler(h NotifyHandler) {
	s.onNotify = h
}

// SetCloseHandler sets the handler for CloseNotification requests.
func (s *Server) SetCloseHandler(h CloseHandler) {
	s.onClose = h
}

// SetServerInfo sets what GetServerInformation returns.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.info = info
}

// Start connects to the session bus, exports the interface and claims the
// bus name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: Interface, Methods: methods(), Signals: signals()},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%w: %s", ErrNameTaken, BusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus notification server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities implements GetCapabilities() -> as.
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements GetServerInformation() -> (ssss).
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify implements Notify(susssasa{sv}i) -> u.
func (s *Server) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	n := &Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	// A stale replaces_id gets a fresh id, as if nothing were replaced.
	id := replacesID
	if id == 0 || !s.IsActive(id) {
		id = s.nextID.Add(1)
	}
	s.logger.Debug("Notify called", "app_name", appName, "replaces_id", replacesID, "id", id)
	s.dispatch(n, id)
	return id, nil
}

// NotifyInternal delivers a notification raised by the daemon itself.
func (s *Server) NotifyInternal(n *Notification) uint32 {
	id := s.nextID.Add(1)
	s.logger.Debug("internal notification", "summary", n.Summary, "id", id)
	s.dispatch(n, id)
	return id
}

func (s *Server) dispatch(n *Notification, id uint32) {
	s.mu.Lock()
	s.active[id] = true
	s.mu.Unlock()

	if s.onNotify != nil {
		s.onNotify(n, id)
	}
}

// CloseNotification implements CloseNotification(u). Unknown ids are
// ignored; NotificationClosed follows once the toast has left the screen.
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)
	if s.IsActive(id) && s.onClose != nil {
		s.onClose(id)
	}
	return nil
}

// IsActive reports whether id is still on screen.
func (s *Server) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[id]
}

func methods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

func signals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
	}
}
