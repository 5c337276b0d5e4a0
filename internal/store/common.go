package store

const (
	ErrFailedBatchCommit = "failed to commit batch: %w"
)

// Key prefixes. Values are persisted; never reorder.
const (
	prefixAccount byte = iota + 1
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case prefixAccount:
		return "account"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and hash
func makeKey(prefix byte, hash []byte) []byte {
	key := make([]byte, 1+len(hash))
	key[0] = prefix
	copy(key[1:], hash)
	return key
}
