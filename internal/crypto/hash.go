package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var ErrInvalidHash = errors.New("invalid hash")

// Hash is a 32 byte blake2b digest, also used as an account address.
type Hash [HashSize]byte

func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// DeriveAddress derives a deterministic account address from a list of seeds.
// Each seed is prefixed with its uvarint length so that ("ab", "c") and
// ("a", "bc") differ whatever the seed lengths.
func DeriveAddress(seeds ...[]byte) Hash {
	h, _ := blake2b.New256(nil)
	var prefix []byte
	for _, seed := range seeds {
		prefix = binary.AppendUvarint(prefix[:0], uint64(len(seed)))
		h.Write(prefix)
		h.Write(seed)
	}

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ParseHash decodes a hex string, with or without 0x prefix, into a Hash
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHash, HashSize, len(b))
	}
	return Hash(b), nil
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}
