package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "accounts")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "accounts", []byte(`[{"username":"sm"}]`)))
	got, err := s.Get(ctx, "accounts")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"sm"}]`, string(got))

	// Overwrite replaces the previous value.
	require.NoError(t, s.Set(ctx, "accounts", []byte(`[]`)))
	got, err = s.Get(ctx, "accounts")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "loggedInUser", []byte(`{"username":"sm"}`)))
	require.NoError(t, s.Delete(ctx, "loggedInUser"))

	_, err = s.Get(ctx, "loggedInUser")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, s.Delete(ctx, "loggedInUser"))
}
