package auth

import (
	"errors"
	"fmt"
)

// Manager is the only writer of a Store. Components read the session through
// it and never touch the store directly.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Current returns the persisted session, if any.
func (m *Manager) Current() (Session, bool) {
	token, err := m.store.Load()
	if err != nil || token == "" {
		return Session{}, false
	}
	return NewSession(token), true
}

// Begin persists token and returns the session for it.
func (m *Manager) Begin(token string) (Session, error) {
	if token == "" {
		return Session{}, errors.New("auth: empty token")
	}
	if err := m.store.Save(token); err != nil {
		return Session{}, fmt.Errorf("auth: save token: %w", err)
	}
	return NewSession(token), nil
}

// End removes the persisted token. It is safe to call without a session.
func (m *Manager) End() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("auth: clear token: %w", err)
	}
	return nil
}
