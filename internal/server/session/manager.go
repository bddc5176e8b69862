// Package session tracks the signed-in user for long-running components
// and notifies subscribers whenever that changes.
package session

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/server/auth"
)

// Session is the identity of a signed-in user. The zero value means
// signed out.
type Session struct {
	UserID   string
	Token    string
	SignedIn time.Time
}

// Active reports whether s represents a signed-in user.
func (s Session) Active() bool { return s.UserID != "" }

// Listener receives the new session after every change.
type Listener func(Session)

// Manager holds the current session. It is safe for concurrent use.
// Listeners run synchronously, outside the lock, in subscription order.
type Manager struct {
	secret []byte

	mu        sync.RWMutex
	current   Session
	listeners map[int]Listener
	order     []int
	nextID    int
}

func NewManager(secret []byte) *Manager {
	return &Manager{secret: secret, listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.order = append(m.order, id)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, id)
			for i, v := range m.order {
				if v == id {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
		})
	}
}

// SignIn verifies token and makes its user current.
func (m *Manager) SignIn(token string) (Session, error) {
	userID, err := auth.GetUserIDFromToken(token, m.secret)
	if err != nil {
		return Session{}, err
	}

	s := Session{UserID: userID, Token: token, SignedIn: time.Now()}
	m.set(s)
	return s, nil
}

// SignOut clears the current session. Listeners are notified only if a
// user was signed in.
func (m *Manager) SignOut() {
	m.mu.RLock()
	active := m.current.Active()
	m.mu.RUnlock()

	if active {
		m.set(Session{})
	}
}

func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) set(s Session) {
	m.mu.Lock()
	m.current = s
	fns := make([]Listener, 0, len(m.order))
	for _, id := range m.order {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
