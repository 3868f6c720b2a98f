package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"demobank/internal/domain"
	"demobank/internal/util"
	"demobank/pkg/kv"
)

// Persisted keys, kept identical to the legacy localStorage layout.
const (
	keyAccounts    = "accounts"
	keyCurrentUser = "loggedInUser"
)

// Collection is the full set of known accounts.
type Collection []*domain.Account

// FindByUsername returns the account with the given username.
func (c Collection) FindByUsername(username string) (*domain.Account, error) {
	for _, a := range c {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, util.ErrAccountNotFound
}

// Upsert replaces the entry matching account.Username, or appends the
// account if no entry matches. Registration relies on this; a registered
// owner whose initials collide with an existing username replaces that
// entry, matching the simulated system's unresolved collision behavior.
func (c Collection) Upsert(account *domain.Account) Collection {
	for i, a := range c {
		if a.Username == account.Username {
			c[i] = account
			return c
		}
	}
	return append(c, account)
}

// AccountStore reads and writes the account collection and the current-user
// pointer through a kv backend.
type AccountStore struct {
	kv kv.Store
}

// NewAccountStore creates an AccountStore over the given backend.
func NewAccountStore(backend kv.Store) *AccountStore {
	return &AccountStore{kv: backend}
}

// Load reads the persisted collection, falling back to the built-in seed set
// when nothing has been stored yet. Undecodable or shape-invalid data is
// reported as ErrMalformedState; callers treat that as fatal to the session.
func (s *AccountStore) Load(ctx context.Context) (Collection, error) {
	data, err := s.kv.Get(ctx, keyAccounts)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return seedAccounts(), nil
		}
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedState, err)
	}
	collection := make(Collection, 0, len(records))
	for _, r := range records {
		a, err := toAccount(r)
		if err != nil {
			return nil, err
		}
		collection = append(collection, a)
	}
	return collection, nil
}

// Save serializes and persists the full collection.
func (s *AccountStore) Save(ctx context.Context, collection Collection) error {
	records := make([]record, 0, len(collection))
	for _, a := range collection {
		records = append(records, toRecord(a))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize accounts: %w", err)
	}
	if err := s.kv.Set(ctx, keyAccounts, data); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// SetCurrentUser persists the session's active account pointer.
func (s *AccountStore) SetCurrentUser(ctx context.Context, account *domain.Account) error {
	data, err := json.Marshal(toRecord(account))
	if err != nil {
		return fmt.Errorf("failed to serialize current user: %w", err)
	}
	if err := s.kv.Set(ctx, keyCurrentUser, data); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

// CurrentUser retrieves the persisted active account, or nil when no user is
// logged in. Malformed data is ErrMalformedState, fatal to the session.
func (s *AccountStore) CurrentUser(ctx context.Context) (*domain.Account, error) {
	data, err := s.kv.Get(ctx, keyCurrentUser)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedState, err)
	}
	return toAccount(r)
}

// ClearCurrentUser removes the active account pointer.
func (s *AccountStore) ClearCurrentUser(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}
