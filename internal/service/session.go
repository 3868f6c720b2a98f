package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"demobank/internal/domain"
	"demobank/internal/util"
)

// sessionState pairs a session with its live countdown. stop identifies the
// currently armed countdown; re-arming closes the old channel first, so at
// most one countdown is ever active per session.
type sessionState struct {
	session   *domain.Session
	remaining int
	stop      chan struct{}
}

// SessionManager owns every active session and its logout countdown. On
// expiry it clears the persisted current-user pointer and drops the session,
// exactly once, no matter how many late ticks arrive.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	store    AccountStore
	logger   *slog.Logger
	ttl      int
	tick     time.Duration
	onExpire func(token string)
}

// NewSessionManager creates a manager with the given countdown length in
// seconds. onExpire, if non-nil, is invoked after a session is force-ended.
func NewSessionManager(store AccountStore, logger *slog.Logger, ttlSeconds int, onExpire func(token string)) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*sessionState),
		store:    store,
		logger:   logger,
		ttl:      ttlSeconds,
		tick:     time.Second,
		onExpire: onExpire,
	}
}

// Create opens a session for the account and starts its countdown.
func (m *SessionManager) Create(account *domain.Account) *domain.Session {
	session := &domain.Session{
		Token:   uuid.NewString(),
		Account: account,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	st := &sessionState{session: session}
	m.sessions[session.Token] = st
	m.arm(st)
	return session
}

// Lookup returns the live session for token, or ErrNoSession.
func (m *SessionManager) Lookup(token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[token]
	if !ok {
		return nil, util.ErrNoSession
	}
	return st.session, nil
}

// ResetTimer restarts the countdown from the full TTL, cancelling the
// previous one first.
func (m *SessionManager) ResetTimer(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sessions[token]; ok {
		m.arm(st)
	}
}

// Remaining reports the seconds left before forced logout.
func (m *SessionManager) Remaining(token string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sessions[token]; ok {
		return st.remaining
	}
	return 0
}

// End cancels the countdown and removes the session. Used by explicit
// logout; ending an already-expired session is a no-op.
func (m *SessionManager) End(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[token]
	if !ok {
		return
	}
	close(st.stop)
	st.stop = nil
	delete(m.sessions, token)
}

// arm starts a fresh countdown for st. Caller must hold m.mu.
func (m *SessionManager) arm(st *sessionState) {
	if st.stop != nil {
		close(st.stop)
	}
	stop := make(chan struct{})
	st.stop = stop
	st.remaining = m.ttl
	go m.countdown(st.session.Token, stop)
}

func (m *SessionManager) countdown(token string, stop chan struct{}) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.advance(token, stop) {
				return
			}
		}
	}
}

// advance decrements the countdown and returns true once this goroutine
// should exit. The stop-channel identity check makes a superseded countdown
// inert, so expiry cannot fire twice.
func (m *SessionManager) advance(token string, stop chan struct{}) bool {
	m.mu.Lock()
	st, ok := m.sessions[token]
	if !ok || st.stop != stop {
		m.mu.Unlock()
		return true
	}
	st.remaining--
	if st.remaining > 0 {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, token)
	m.mu.Unlock()

	if err := m.store.ClearCurrentUser(context.Background()); err != nil {
		m.logger.Error("failed to clear current user on session expiry", "error", err)
	}
	m.logger.Info("session expired, forcing logout", "token", token)
	if m.onExpire != nil {
		m.onExpire(token)
	}
	return true
}
