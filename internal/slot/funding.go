package slot

import (
	"fmt"

	"github.com/eigerco/stakeslot/internal/safemath"
)

// FundingSource supplies and reclaims the balance backing a slot
type FundingSource interface {
	Balance() uint64
	Withdraw(amount uint64) error
	Deposit(amount uint64) error
}

// Wallet is a plain lamport balance acting as a funding source
type Wallet struct {
	Lamports uint64
}

func (w *Wallet) Balance() uint64 {
	return w.Lamports
}

func (w *Wallet) Withdraw(amount uint64) error {
	v, ok := safemath.Sub64(w.Lamports, amount)
	if !ok {
		return fmt.Errorf("%w: wallet holds %d, asked for %d", ErrInsufficientFunding, w.Lamports, amount)
	}
	w.Lamports = v
	return nil
}

func (w *Wallet) Deposit(amount uint64) error {
	v, ok := safemath.Add64(w.Lamports, amount)
	if !ok {
		return fmt.Errorf("deposit %d: %w", amount, safemath.ErrOverflow)
	}
	w.Lamports = v
	return nil
}
