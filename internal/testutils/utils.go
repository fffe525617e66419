package testutils

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/pkg/db/pebble"
)

func RandomHash(t *testing.T) crypto.Hash {
	var hash crypto.Hash
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

func RandomBytes(t *testing.T, n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// NewMemoryStore opens an in-memory pebble store closed at the end of the test
func NewMemoryStore(t *testing.T) *pebble.KVStore {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = kv.Close()
	})
	return kv
}
