package migration

import (
	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/slot"
)

// Serialized widths of the current stake entry schema.
const (
	discriminatorSize        = 8
	bumpSize                 = 1
	poolSize                 = crypto.HashSize
	amountSize               = 8
	originalMintSize         = crypto.HashSize
	originalMintClaimedSize  = 1
	lastStakerSize           = crypto.HashSize
	lastStakedAtSize         = 8
	totalStakeSecondsSize    = 16
	stakeMintClaimedSize     = 1
	kindSize                 = 1
	stakeMintSize            = 1 + crypto.HashSize // optional
	cooldownStartSecondsSize = 1 + 8              // optional
	lastUpdatedAtSize        = 1 + 8              // optional
	reservedSize             = 8
)

// StakeEntrySize is the canonical byte length of a stake entry under the
// current schema.
const StakeEntrySize = discriminatorSize + bumpSize + poolSize + amountSize +
	originalMintSize + originalMintClaimedSize + lastStakerSize + lastStakedAtSize +
	totalStakeSecondsSize + stakeMintClaimedSize + kindSize + stakeMintSize +
	cooldownStartSecondsSize + lastUpdatedAtSize + reservedSize

// StakeEntryAddress derives the address of the stake entry of mint in pool
func StakeEntryAddress(pool, mint crypto.Hash) crypto.Hash {
	return crypto.DeriveAddress([]byte("stake-entry"), pool[:], mint[:])
}

// Record is a located, already authorized stake entry. Slot is borrowed for
// the duration of a single operation.
type Record struct {
	Address  crypto.Hash
	Slot     *slot.Slot
	UsedSize int // length of the serialized prefix under the active schema
}

// TailZeroed reports whether the bytes past the used prefix are all zero
func (r Record) TailZeroed() (bool, error) {
	return slot.TailIsZero(r.Slot, r.UsedSize)
}
