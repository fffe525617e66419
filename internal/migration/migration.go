// Package migration holds the stake entry migration operations. Both run
// behind a gate that is checked before anything else, so a retired operation
// rejects valid and invalid input alike without touching the slot.
package migration

import (
	"github.com/eigerco/stakeslot/internal/gate"
	"github.com/eigerco/stakeslot/internal/slot"
)

type Migrator struct {
	gate gate.Gate
	rent slot.Rent
}

func New(g gate.Gate, rent slot.Rent) *Migrator {
	return &Migrator{gate: g, rent: rent}
}

// Gate returns the availability table the migrator was built with
func (m *Migrator) Gate() gate.Gate {
	return m.gate
}

func (m *Migrator) Rent() slot.Rent {
	return m.rent
}

// Resize changes the record's slot capacity to targetSize and rebalances its
// funding against payer. Grown bytes are not zeroed, callers must run
// FillZeros before the tail is read under a new schema.
func (m *Migrator) Resize(rec Record, targetSize int, payer slot.FundingSource) (State, error) {
	if err := m.gate.Check(gate.OpResize); err != nil {
		return Rejected, err
	}

	if err := slot.ChangeCapacity(rec.Slot, targetSize, payer, m.rent); err != nil {
		return Failed, err
	}
	return Completed, nil
}

// FillZeros zeroes the record's slot from the used prefix to the end
func (m *Migrator) FillZeros(rec Record) (State, error) {
	if err := m.gate.Check(gate.OpFillZeros); err != nil {
		return Rejected, err
	}

	capacity := 0
	if rec.Slot != nil {
		capacity = rec.Slot.Capacity()
	}
	if err := slot.ZeroFill(rec.Slot, rec.UsedSize, capacity); err != nil {
		return Failed, err
	}
	return Completed, nil
}
