// Package ledger runs migration operations the way the host ledger does: each
// call is one transaction over fresh copies of the accounts it touches, which
// is committed as a whole on success and dropped as a whole on failure.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/gate"
	"github.com/eigerco/stakeslot/internal/migration"
	"github.com/eigerco/stakeslot/internal/slot"
	"github.com/eigerco/stakeslot/internal/store"
	"github.com/eigerco/stakeslot/pkg/log"
)

var ErrEntryExists = errors.New("stake entry already exists")

// Receipt describes the outcome of one migration transaction
type Receipt struct {
	ID        uuid.UUID
	Operation gate.Operation
	Address   crypto.Hash
	State     migration.State
	Capacity  int    // slot capacity after commit
	Balance   uint64 // slot balance after commit
}

type Executor struct {
	accounts *store.Accounts
	migrator *migration.Migrator
	metrics  *Metrics
}

func NewExecutor(accounts *store.Accounts, migrator *migration.Migrator, metrics *Metrics) *Executor {
	return &Executor{
		accounts: accounts,
		migrator: migrator,
		metrics:  metrics,
	}
}

// Resize runs the resize operation on the stake entry at addr, funded by the
// wallet at payer.
func (e *Executor) Resize(addr crypto.Hash, targetSize int, payer crypto.Hash) (Receipt, error) {
	return e.execute(gate.OpResize, addr, func(rec migration.Record, changes store.Changes) (migration.State, error) {
		wallet, err := e.accounts.GetWallet(payer)
		if err != nil {
			return migration.Failed, fmt.Errorf("load payer: %w", err)
		}

		state, err := e.migrator.Resize(rec, targetSize, wallet)
		changes.Wallets[payer] = wallet
		return state, err
	})
}

// FillZeros runs the fill zeros operation on the stake entry at addr
func (e *Executor) FillZeros(addr crypto.Hash) (Receipt, error) {
	return e.execute(gate.OpFillZeros, addr, func(rec migration.Record, _ store.Changes) (migration.State, error) {
		return e.migrator.FillZeros(rec)
	})
}

type operation func(rec migration.Record, changes store.Changes) (migration.State, error)

func (e *Executor) execute(op gate.Operation, addr crypto.Hash, run operation) (Receipt, error) {
	start := time.Now()
	receipt := Receipt{
		ID:        uuid.New(),
		Operation: op,
		Address:   addr,
		State:     migration.Pending,
	}
	logger := log.Ledger.With().
		Str("tx", receipt.ID.String()).
		Stringer("operation", op).
		Stringer("address", addr).
		Logger()

	err := e.apply(op, addr, run, &receipt)
	e.metrics.observe(op, receipt.State, start)
	if err != nil {
		logger.Warn().Err(err).Stringer("state", receipt.State).Msg("transaction aborted")
		return receipt, err
	}

	logger.Info().
		Stringer("state", receipt.State).
		Int("capacity", receipt.Capacity).
		Uint64("balance", receipt.Balance).
		Msg("transaction committed")
	return receipt, nil
}

func (e *Executor) apply(op gate.Operation, addr crypto.Hash, run operation, receipt *Receipt) error {
	// A retired operation is rejected before any account is read.
	if err := e.migrator.Gate().Check(op); err != nil {
		receipt.State = migration.Rejected
		return err
	}

	s, err := e.accounts.GetSlot(addr)
	if err != nil {
		receipt.State = migration.Failed
		return fmt.Errorf("load stake entry: %w", err)
	}

	receipt.State = migration.Executing
	changes := store.NewChanges()
	rec := migration.Record{Address: addr, Slot: s, UsedSize: migration.StakeEntrySize}

	state, err := run(rec, changes)
	receipt.State = state
	if err != nil {
		return err
	}

	changes.Slots[addr] = s
	if err := e.accounts.Commit(changes); err != nil {
		receipt.State = migration.Failed
		return err
	}

	receipt.Capacity = s.Capacity()
	receipt.Balance = s.Balance
	return nil
}

// CreateEntry allocates a zeroed stake entry of the given capacity for mint
// in pool, funded at the rent minimum by payer.
func (e *Executor) CreateEntry(pool, mint crypto.Hash, capacity int, payer crypto.Hash) (crypto.Hash, error) {
	addr := migration.StakeEntryAddress(pool, mint)

	_, err := e.accounts.GetSlot(addr)
	if err == nil {
		return addr, fmt.Errorf("%w: %s", ErrEntryExists, addr)
	}
	if !errors.Is(err, store.ErrSlotNotFound) {
		return addr, fmt.Errorf("check stake entry: %w", err)
	}

	wallet, err := e.accounts.GetWallet(payer)
	if err != nil {
		return addr, fmt.Errorf("load payer: %w", err)
	}

	s := &slot.Slot{}
	if err := slot.ChangeCapacity(s, capacity, wallet, e.migrator.Rent()); err != nil {
		return addr, fmt.Errorf("allocate stake entry: %w", err)
	}
	if err := slot.ZeroFill(s, 0, s.Capacity()); err != nil {
		return addr, err
	}

	changes := store.NewChanges()
	changes.Slots[addr] = s
	changes.Wallets[payer] = wallet
	if err := e.accounts.Commit(changes); err != nil {
		return addr, err
	}

	log.Ledger.Info().
		Stringer("address", addr).
		Int("capacity", capacity).
		Uint64("balance", s.Balance).
		Msg("stake entry created")
	return addr, nil
}

// Fund credits amount lamports to the wallet at addr, creating it if needed
func (e *Executor) Fund(addr crypto.Hash, amount uint64) (*slot.Wallet, error) {
	wallet, err := e.accounts.GetWallet(addr)
	if errors.Is(err, store.ErrWalletNotFound) {
		wallet, err = &slot.Wallet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	if err := wallet.Deposit(amount); err != nil {
		return nil, err
	}
	if err := e.accounts.PutWallet(addr, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// Inspection is a read only view of a stake entry slot
type Inspection struct {
	Address        crypto.Hash
	Capacity       int
	UsedSize       int
	Balance        uint64
	MinimumBalance uint64
	Undersized     bool // capacity below the current schema size
	TailZeroed     bool // bytes past the used prefix are all zero
}

func (e *Executor) Inspect(addr crypto.Hash) (Inspection, error) {
	s, err := e.accounts.GetSlot(addr)
	if err != nil {
		return Inspection{}, err
	}

	minimum, err := e.migrator.Rent().MinimumBalance(s.Capacity())
	if err != nil {
		return Inspection{}, err
	}

	in := Inspection{
		Address:        addr,
		Capacity:       s.Capacity(),
		UsedSize:       migration.StakeEntrySize,
		Balance:        s.Balance,
		MinimumBalance: minimum,
		Undersized:     s.Capacity() < migration.StakeEntrySize,
	}
	if !in.Undersized {
		rec := migration.Record{Address: addr, Slot: s, UsedSize: migration.StakeEntrySize}
		if in.TailZeroed, err = rec.TailZeroed(); err != nil {
			return Inspection{}, err
		}
	}
	return in, nil
}
