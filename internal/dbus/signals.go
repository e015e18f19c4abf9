package dbus

import (
	"fmt"
)

// CloseWithReason marks id closed and emits NotificationClosed.
// Ids that are not active are ignored, so every notification is reported
// at most once.
func (s *Server) CloseWithReason(id uint32, reason CloseReason) error {
	s.mu.Lock()
	active := s.active[id]
	delete(s.active, id)
	conn := s.conn
	s.mu.Unlock()

	if !active {
		return nil
	}
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(Path, Interface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}
	s.logger.Debug("emitted NotificationClosed", "id", id, "reason", reason.String())
	return nil
}
