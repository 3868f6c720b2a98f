package service

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"demobank/internal/domain"
	"demobank/internal/util"
)

func testSessionAccount() *domain.Account {
	return domain.NewAccount("Sarah Mitchell", "1111", decimal.NewFromInt(500), time.Now().UTC())
}

func TestSessionExpiryFiresExactlyOnce(t *testing.T) {
	mockStore := new(MockAccountStore)
	mockStore.On("ClearCurrentUser", mock.Anything).Return(nil)

	var fired atomic.Int32
	m := NewSessionManager(mockStore, slog.Default(), 2, func(token string) {
		fired.Add(1)
	})
	m.tick = 5 * time.Millisecond

	session := m.Create(testSessionAccount())

	require.Eventually(t, func() bool {
		return fired.Load() > 0
	}, time.Second, time.Millisecond)

	// Give any stray ticks a chance to misbehave, then confirm the expiry
	// fired once and the session is gone.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	_, err := m.Lookup(session.Token)
	assert.ErrorIs(t, err, util.ErrNoSession)
	mockStore.AssertNumberOfCalls(t, "ClearCurrentUser", 1)
}

func TestSessionResetRestartsCountdown(t *testing.T) {
	mockStore := new(MockAccountStore)
	m := NewSessionManager(mockStore, slog.Default(), 300, nil)
	m.tick = 5 * time.Millisecond

	session := m.Create(testSessionAccount())

	// Let a few ticks pass, then reset: the countdown is back at full TTL.
	require.Eventually(t, func() bool {
		return m.Remaining(session.Token) < 300
	}, time.Second, time.Millisecond)

	m.ResetTimer(session.Token)
	assert.Equal(t, 300, m.Remaining(session.Token))

	_, err := m.Lookup(session.Token)
	assert.NoError(t, err)
}

func TestSessionEndCancelsCountdown(t *testing.T) {
	mockStore := new(MockAccountStore)

	var fired atomic.Int32
	m := NewSessionManager(mockStore, slog.Default(), 1, func(token string) {
		fired.Add(1)
	})
	m.tick = 5 * time.Millisecond

	session := m.Create(testSessionAccount())
	m.End(session.Token)

	_, err := m.Lookup(session.Token)
	assert.ErrorIs(t, err, util.ErrNoSession)

	// The cancelled countdown never expires.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	mockStore.AssertNotCalled(t, "ClearCurrentUser", mock.Anything)

	// Ending again is a no-op.
	m.End(session.Token)
}

func TestSessionsAreIndependent(t *testing.T) {
	mockStore := new(MockAccountStore)
	m := NewSessionManager(mockStore, slog.Default(), 300, nil)

	a := m.Create(testSessionAccount())
	b := m.Create(testSessionAccount())
	require.NotEqual(t, a.Token, b.Token)

	m.End(a.Token)
	_, err := m.Lookup(b.Token)
	assert.NoError(t, err)
}
