package session

import "sync"

// Menu is the mobile navigation toggle.
type Menu struct {
	mu   sync.Mutex
	open bool
}

func (m *Menu) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = !m.open
	return m.open
}

func (m *Menu) Open() {
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
}

// Close is called after navigating to a section.
func (m *Menu) Close() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
}

func (m *Menu) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}
