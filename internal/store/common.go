package store

import "github.com/eigerco/stakeslot/internal/crypto"

const (
	ErrFailedBatchCommit = "failed to commit batch: %w"
)

// Prefix constants for all record kinds kept in the account store
const (
	prefixSlot byte = iota + 1
	prefixWallet
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case prefixSlot:
		return "slot"
	case prefixWallet:
		return "wallet"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and an account address
func makeKey(prefix byte, addr crypto.Hash) []byte {
	key := make([]byte, 1+len(addr))
	key[0] = prefix
	copy(key[1:], addr[:])
	return key
}
