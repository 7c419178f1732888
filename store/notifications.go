package store

import "github.com/kleeedolinux/datesync/model"

// AddNotification prepends n so the list stays newest first, trimming it to
// MaxNotifications.
func (m *Memory) AddNotification(n model.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]model.Notification, 0, len(m.state.Notifications)+1)
	list = append(list, n)
	list = append(list, m.state.Notifications...)
	if len(list) > MaxNotifications {
		list = list[:MaxNotifications]
	}
	m.state.Notifications = list
}

func (m *Memory) MarkNotificationRead(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Notifications {
		if m.state.Notifications[i].ID == id {
			m.state.Notifications[i].Read = true
			return true
		}
	}
	return false
}

func (m *Memory) MarkAllNotificationsRead() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Notifications {
		m.state.Notifications[i].Read = true
	}
}

func (m *Memory) RemoveNotification(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Notifications {
		if m.state.Notifications[i].ID == id {
			m.state.Notifications = append(m.state.Notifications[:i], m.state.Notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Memory) ClearReadNotifications() {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.state.Notifications[:0]
	for _, n := range m.state.Notifications {
		if !n.Read {
			kept = append(kept, n)
		}
	}
	m.state.Notifications = kept
}

func (m *Memory) ClearNotifications() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Notifications = nil
}

func (m *Memory) Notifications() []model.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.Notification(nil), m.state.Notifications...)
}

func (m *Memory) UnreadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.state.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
