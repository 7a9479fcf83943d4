// Package sessions holds per-chat dialog state between messages.
package sessions

import (
	"sync"
	"time"
)

type entry struct {
	state   State
	updated time.Time
}

// Manager stores the dialog state of every chat, keyed by chat id.
// Chats without an entry are Idle. Safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	chats map[int64]*entry
	now   func() time.Time
}

// NewManager creates an empty Manager where every chat starts Idle.
func NewManager() *Manager {
	return &Manager{
		chats: make(map[int64]*entry),
		now:   time.Now,
	}
}

// Get returns the chat's current state.
func (m *Manager) Get(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.chats[chatID]; ok {
		return e.state
	}
	return Idle{}
}

// Set stores the chat's next state. Setting Idle drops the entry.
func (m *Manager) Set(chatID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s == nil || s.Stage() == StageIdle {
		delete(m.chats, chatID)
		return
	}
	m.chats[chatID] = &entry{state: s, updated: m.now()}
}

// Touch marks the chat's dialog as active without changing its state.
// Idle chats are left alone.
func (m *Manager) Touch(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.chats[chatID]; ok {
		e.updated = m.now()
	}
}

// Reset returns the chat to Idle.
func (m *Manager) Reset(chatID int64) {
	m.Set(chatID, Idle{})
}

// Len returns the number of chats with a dialog in progress.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chats)
}

// Prune resets dialogs without activity for longer than maxAge and returns how many were dropped.
func (m *Manager) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	n := 0
	for id, e := range m.chats {
		if e.updated.Before(cutoff) {
			delete(m.chats, id)
			n++
		}
	}
	return n
}
