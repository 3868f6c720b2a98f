// Package kv provides the key-value persistence layer backing the account
// store. The persisted layout is a small set of string keys, each holding one
// JSON value, so the interface is deliberately minimal. Two backends exist: a
// directory of JSON files and a single-table PostgreSQL store.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// Store is the minimal key-value contract the account store is built on.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
