package testutils

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db/pebble"
)

// RandomAddress returns a random 32 byte account address in hex.
func RandomAddress(t *testing.T) string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

// NewMemoryKVStore opens an in-memory pebble store closed at the end of the test.
func NewMemoryKVStore(t *testing.T) *pebble.KVStore {
	kv, err := pebble.NewMemoryKVStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = kv.Close()
	})
	return kv
}

// RequireBytes fails the test with a unified diff of the hex dumps when the
// two byte slices differ.
func RequireBytes(t *testing.T, expected, actual []byte) {
	t.Helper()
	if string(expected) == string(actual) {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(hex.Dump(expected)),
		B:        difflib.SplitLines(hex.Dump(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	t.Fatalf("byte mismatch:\n%s", diff)
}
