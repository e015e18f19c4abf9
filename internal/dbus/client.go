package dbus

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Client sends notifications to the daemon owning the bus name.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial opens a private session bus connection.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(BusName, Path)}, nil
}

// Notify sends n and returns the id the server assigned.
func (c *Client) Notify(ctx context.Context, n *Notification) (uint32, error) {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, Interface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body, actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify failed: %w", err)
	}
	return id, nil
}

// CloseNotification asks the server to close id.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	if err := c.obj.CallWithContext(ctx, Interface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification failed: %w", err)
	}
	return nil
}

// ServerInformation queries the running server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, Interface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information failed: %w", err)
	}
	return info, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// NewNotification builds a Notification for a toast category.
// The category travels in the category hint, which toastackd maps back.
func NewNotification(appName, summary, body, category string, timeout time.Duration) *Notification {
	n := &Notification{
		AppName:       appName,
		Summary:       summary,
		Body:          body,
		Hints:         map[string]dbus.Variant{},
		ExpireTimeout: -1,
	}
	if category != "" {
		n.Hints["category"] = dbus.MakeVariant(category)
	}
	if timeout > 0 {
		n.ExpireTimeout = int32(timeout / time.Millisecond)
	}
	return n
}
