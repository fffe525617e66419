package slot

import "fmt"

// CapacityPlan is a validated change from one capacity to another
type CapacityPlan struct {
	Old int
	New int
}

func (p CapacityPlan) Grow() bool   { return p.New > p.Old }
func (p CapacityPlan) Shrink() bool { return p.New < p.Old }

// Delta is the signed change in bytes
func (p CapacityPlan) Delta() int { return p.New - p.Old }

// PlanCapacity validates a capacity change against the platform limits
func PlanCapacity(oldCapacity, newCapacity int) (CapacityPlan, error) {
	if newCapacity < 0 {
		return CapacityPlan{}, fmt.Errorf("%w: negative capacity %d", ErrInvalidCapacity, newCapacity)
	}
	if newCapacity > MaxCapacity {
		return CapacityPlan{}, fmt.Errorf("%w: %d exceeds maximum of %d", ErrInvalidCapacity, newCapacity, MaxCapacity)
	}
	if newCapacity-oldCapacity > MaxCapacityIncrease {
		return CapacityPlan{}, fmt.Errorf("%w: growth of %d exceeds maximum of %d", ErrInvalidCapacity, newCapacity-oldCapacity, MaxCapacityIncrease)
	}
	return CapacityPlan{Old: oldCapacity, New: newCapacity}, nil
}

// FundingDelta is what has to move between a slot and its funding source.
// At most one of the two fields is non zero.
type FundingDelta struct {
	Shortfall uint64 // drawn from the funding source
	Excess    uint64 // returned to the funding source
}

func ComputeFundingDelta(current, required uint64) FundingDelta {
	if current < required {
		return FundingDelta{Shortfall: required - current}
	}
	return FundingDelta{Excess: current - required}
}
