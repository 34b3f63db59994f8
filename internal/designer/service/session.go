package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ============================================================
// Session Manager
// ============================================================

var ErrSessionNotFound = errors.New("session not found")

// Session: одна сессия редактора, Store и Controller под общим мьютексом.
type Session struct {
	ID string

	mu     sync.Mutex
	store  *Store
	canvas *Controller
}

// Do runs fn with exclusive access to the session, keeping the store's
// single-threaded contract when requests arrive concurrently.
func (s *Session) Do(fn func(store *Store, canvas *Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store, s.canvas)
}

type SessionManager struct {
	sessions *cache.Cache
	ttl      time.Duration
	opts     []Option
}

// NewSessionManager хранит сессии в памяти; неактивные удаляются через ttl.
// A cleanup interval below one disables the background janitor.
func NewSessionManager(ttl, cleanup time.Duration, opts ...Option) *SessionManager {
	return &SessionManager{
		sessions: cache.New(ttl, cleanup),
		ttl:      ttl,
		opts:     opts,
	}
}

func (m *SessionManager) Create() *Session {
	store := NewStore(m.opts...)
	sess := &Session{
		ID:     uuid.NewString(),
		store:  store,
		canvas: NewController(store),
	}
	m.sessions.Set(sess.ID, sess, m.ttl)
	return sess
}

// Get returns the session and extends its lifetime.
func (m *SessionManager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*Session)
	m.sessions.Set(id, sess, m.ttl)
	return sess, nil
}

func (m *SessionManager) Delete(id string) bool {
	if _, ok := m.sessions.Get(id); !ok {
		return false
	}
	m.sessions.Delete(id)
	return true
}

func (m *SessionManager) Count() int {
	return m.sessions.ItemCount()
}

// OnEvicted registers a callback for sessions removed by expiry or Delete.
func (m *SessionManager) OnEvicted(fn func(id string)) {
	m.sessions.OnEvicted(func(key string, _ interface{}) {
		fn(key)
	})
}
