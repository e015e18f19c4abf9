package dbus

import (
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const notifyMatch = "type='method_call',interface='org.freedesktop.Notifications',member='Notify'"

// Monitor observes Notify calls on the session bus without owning the
// notification name, so toastack can mirror another daemon.
type Monitor struct {
	conn     *dbus.Conn
	logger   *slog.Logger
	onNotify NotifyHandler
}

// NewMonitor creates a Monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// SetNotifyHandler sets the handler for observed notifications. Ids are
// derived from the content because the owner's reply is not observed.
func (m *Monitor) SetNotifyHandler(h NotifyHandler) {
	m.onNotify = h
}

// Start opens a private connection and turns it into a monitor, falling
// back to eavesdropping on buses without BecomeMonitor.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)

	err = conn.BusObject().Call("org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, []string{notifyMatch}, uint32(0)).Err
	if err != nil {
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, notifyMatch+",eavesdrop='true'").Err; err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to add match rule: %w", err)
		}
	}

	m.logger.Info("D-Bus monitor started")
	go m.loop(ch)
	return nil
}

func (m *Monitor) loop(ch <-chan *dbus.Message) {
	for msg := range ch {
		if msg.Type != dbus.TypeMethodCall {
			continue
		}
		if v, ok := msg.Headers[dbus.FieldMember]; !ok || v.Value() != "Notify" {
			continue
		}

		n, err := ParseNotify(msg.Body)
		if err != nil {
			m.logger.Warn("malformed Notify call", "error", err)
			continue
		}
		if m.onNotify != nil {
			m.onNotify(n, MonitorID(n))
		}
	}
}

// ParseNotify decodes the body of a Notify method call.
func ParseNotify(body []any) (*Notification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("expected 8 arguments, got %d", len(body))
	}

	n := &Notification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, fmt.Errorf("invalid app_name type %T", body[0])
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, fmt.Errorf("invalid replaces_id type %T", body[1])
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, fmt.Errorf("invalid app_icon type %T", body[2])
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, fmt.Errorf("invalid summary type %T", body[3])
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, fmt.Errorf("invalid body type %T", body[4])
	}
	n.Actions, _ = body[5].([]string)
	n.Hints, _ = body[6].(map[string]dbus.Variant)
	n.ExpireTimeout, _ = body[7].(int32)
	return n, nil
}

// MonitorID derives a stable id from the identifying content of n.
func MonitorID(n *Notification) uint32 {
	h := fnv.New32a()
	for _, s := range []string{n.AppName, n.Summary, n.Body} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

// Stop closes the monitor connection.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
