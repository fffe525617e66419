package slot

import (
	"errors"
	"fmt"
)

const (
	MaxCapacity         = 10 * 1024 * 1024 // Hard ceiling on the byte capacity of any slot.
	MaxCapacityIncrease = 10 * 1024        // Maximum growth of a slot within a single capacity change.
)

var (
	ErrNoSlot              = errors.New("no slot")
	ErrInvalidCapacity     = errors.New("invalid capacity")
	ErrInsufficientFunding = errors.New("insufficient funding")
	ErrRangeOutOfBounds    = errors.New("range out of bounds")
)

// Slot is a borrowed view of an externally owned storage slot. The owner hands
// it to a single operation and takes it back once the operation returns.
type Slot struct {
	Data    []byte // the slot's bytes, capacity is len(Data)
	Balance uint64 // funding held by the slot
}

// Capacity returns the number of bytes the slot can hold
func (s *Slot) Capacity() int {
	return len(s.Data)
}

// ChangeCapacity resizes the slot to exactly newCapacity bytes and rebalances
// its funding against payer so that it holds exactly the rent minimum for the
// new capacity.
//
// Bytes below min(old, new) are preserved. Bytes exposed by growth are left
// unspecified, callers that need them zeroed must call ZeroFill. Bytes cut by
// a shrink are discarded.
//
// Every check happens before the first mutation, on error neither the slot
// nor the payer are modified.
func ChangeCapacity(s *Slot, newCapacity int, payer FundingSource, rent Rent) error {
	if s == nil {
		return ErrNoSlot
	}

	plan, err := PlanCapacity(s.Capacity(), newCapacity)
	if err != nil {
		return err
	}

	required, err := rent.MinimumBalance(plan.New)
	if err != nil {
		return err
	}

	delta := ComputeFundingDelta(s.Balance, required)
	switch {
	case delta.Shortfall > 0:
		if payer == nil || payer.Balance() < delta.Shortfall {
			return fmt.Errorf("%w: need %d more lamports", ErrInsufficientFunding, delta.Shortfall)
		}
		if err := payer.Withdraw(delta.Shortfall); err != nil {
			return fmt.Errorf("withdraw shortfall: %w", err)
		}
		s.Balance = required
	case delta.Excess > 0 && payer != nil:
		if err := payer.Deposit(delta.Excess); err != nil {
			return fmt.Errorf("return excess: %w", err)
		}
		s.Balance = required
	}

	s.realloc(plan.New)
	return nil
}

// ZeroFill overwrites Data[from:to] with zero bytes
func ZeroFill(s *Slot, from, to int) error {
	if s == nil {
		return ErrNoSlot
	}
	if from < 0 || from > to || to > s.Capacity() {
		return fmt.Errorf("%w: [%d, %d) in slot of %d bytes", ErrRangeOutOfBounds, from, to, s.Capacity())
	}

	clear(s.Data[from:to])
	return nil
}

// TailIsZero reports whether every byte in [from, capacity) is zero, which is
// what a newer schema reader checks before reinterpreting the tail.
func TailIsZero(s *Slot, from int) (bool, error) {
	if s == nil {
		return false, ErrNoSlot
	}
	if from < 0 || from > s.Capacity() {
		return false, fmt.Errorf("%w: tail from %d in slot of %d bytes", ErrRangeOutOfBounds, from, s.Capacity())
	}

	for _, b := range s.Data[from:] {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *Slot) realloc(n int) {
	old := len(s.Data)
	switch {
	case n < old:
		// Wipe the cut region in the backing array, a later growth must not see it again.
		clear(s.Data[n:old])
		s.Data = s.Data[:n]
	case n > old && n <= cap(s.Data):
		s.Data = s.Data[:n]
	case n > old:
		grown := make([]byte, n)
		copy(grown, s.Data)
		s.Data = grown
	}
}
