package slot

import (
	"fmt"

	"github.com/eigerco/stakeslot/internal/safemath"
)

const (
	DefaultLamportsPerByteYear = 3480 // Yearly storage cost of one byte.
	DefaultExemptionThreshold  = 2    // Years of rent a slot must hold to be exempt.
	DefaultStorageOverhead     = 128  // Bytes of bookkeeping charged on top of the slot data.
)

var DefaultRent = Rent{
	LamportsPerByteYear: DefaultLamportsPerByteYear,
	ExemptionThreshold:  DefaultExemptionThreshold,
	StorageOverhead:     DefaultStorageOverhead,
}

// Rent describes what a slot must hold to keep its storage funded
type Rent struct {
	LamportsPerByteYear uint64 `yaml:"lamports_per_byte_year"`
	ExemptionThreshold  uint64 `yaml:"exemption_threshold"`
	StorageOverhead     uint64 `yaml:"storage_overhead"`
}

// MinimumBalance returns (overhead + capacity) * lamportsPerByteYear * threshold
func (r Rent) MinimumBalance(capacity int) (uint64, error) {
	if capacity < 0 {
		return 0, fmt.Errorf("%w: negative capacity %d", ErrInvalidCapacity, capacity)
	}

	size, ok := safemath.Add64(r.StorageOverhead, uint64(capacity))
	if !ok {
		return 0, fmt.Errorf("%w: minimum balance for %d bytes: %w", ErrInvalidCapacity, capacity, safemath.ErrOverflow)
	}
	perYear, ok := safemath.Mul64(size, r.LamportsPerByteYear)
	if !ok {
		return 0, fmt.Errorf("%w: minimum balance for %d bytes: %w", ErrInvalidCapacity, capacity, safemath.ErrOverflow)
	}
	total, ok := safemath.Mul64(perYear, r.ExemptionThreshold)
	if !ok {
		return 0, fmt.Errorf("%w: minimum balance for %d bytes: %w", ErrInvalidCapacity, capacity, safemath.ErrOverflow)
	}
	return total, nil
}
