// Package gate decides, once per deployment, which record migration
// operations may run. A closed operation is retired for good: its entry point
// stays callable but rejects every invocation before touching storage.
package gate

import (
	"errors"
	"fmt"
)

var ErrInstructionNotSupported = errors.New("instruction not supported")

// Operation identifies a gated migration operation
type Operation uint8

const (
	OpResize Operation = iota + 1
	OpFillZeros
)

func (o Operation) String() string {
	switch o {
	case OpResize:
		return "resize"
	case OpFillZeros:
		return "fill_zeros"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Operations lists every gated operation in a stable order
var Operations = []Operation{OpResize, OpFillZeros}

type Availability uint8

const (
	Closed Availability = iota
	Open
)

func (a Availability) String() string {
	if a == Open {
		return "open"
	}
	return "closed"
}

// Gate is an immutable availability table. The zero value closes everything.
type Gate struct {
	open map[Operation]bool
}

// Deployed is the gate of the current deployment. The stake entry schema
// migration has ended, so both operations are retired.
var Deployed = New(map[Operation]Availability{
	OpResize:    Closed,
	OpFillZeros: Closed,
})

// New builds a gate from an availability table. Operations missing from the
// table are closed. The table is copied, later changes to it have no effect.
func New(table map[Operation]Availability) Gate {
	open := make(map[Operation]bool, len(table))
	for op, a := range table {
		if a == Open {
			open[op] = true
		}
	}
	return Gate{open: open}
}

func (g Gate) Availability(op Operation) Availability {
	if g.open[op] {
		return Open
	}
	return Closed
}

func (g Gate) IsClosed(op Operation) bool {
	return !g.open[op]
}

// Check returns ErrInstructionNotSupported if op is closed
func (g Gate) Check(op Operation) error {
	if g.IsClosed(op) {
		return fmt.Errorf("%s: %w", op, ErrInstructionNotSupported)
	}
	return nil
}
