package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/slot"
	"github.com/eigerco/stakeslot/pkg/db"
	"github.com/eigerco/stakeslot/pkg/db/pebble"
	"github.com/eigerco/stakeslot/pkg/log"
)

var (
	ErrSlotNotFound   = errors.New("slot not found")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrAccountsClosed = errors.New("account store is closed")
	ErrCorruptSlot    = errors.New("corrupt slot encoding")
	ErrCorruptWallet  = errors.New("corrupt wallet encoding")
)

const balanceSize = 8

// Accounts persists storage slots and funding wallets. It plays the host
// ledger that owns both: operations get fresh copies and hand them back
// through Commit.
type Accounts struct {
	db     db.KVStore
	closed atomic.Bool
}

func NewAccounts(db db.KVStore) *Accounts {
	return &Accounts{db: db}
}

// Changes is the set of account writes produced by one transaction
type Changes struct {
	Slots   map[crypto.Hash]*slot.Slot
	Wallets map[crypto.Hash]*slot.Wallet
}

func NewChanges() Changes {
	return Changes{
		Slots:   make(map[crypto.Hash]*slot.Slot),
		Wallets: make(map[crypto.Hash]*slot.Wallet),
	}
}

// GetSlot returns a private copy of the slot stored at addr
func (a *Accounts) GetSlot(addr crypto.Hash) (*slot.Slot, error) {
	if a.closed.Load() {
		return nil, ErrAccountsClosed
	}

	raw, err := a.db.Get(makeKey(prefixSlot, addr))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return decodeSlot(raw)
}

// GetWallet returns a private copy of the wallet stored at addr
func (a *Accounts) GetWallet(addr crypto.Hash) (*slot.Wallet, error) {
	if a.closed.Load() {
		return nil, ErrAccountsClosed
	}

	raw, err := a.db.Get(makeKey(prefixWallet, addr))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	if len(raw) != balanceSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptWallet, len(raw))
	}
	return &slot.Wallet{Lamports: binary.LittleEndian.Uint64(raw)}, nil
}

// PutSlot stores a single slot outside of any transaction
func (a *Accounts) PutSlot(addr crypto.Hash, s *slot.Slot) error {
	if a.closed.Load() {
		return ErrAccountsClosed
	}
	if s == nil {
		return fmt.Errorf("store slot %s: %w", addr, slot.ErrNoSlot)
	}
	if err := a.db.Put(makeKey(prefixSlot, addr), encodeSlot(s)); err != nil {
		return fmt.Errorf("store slot: %w", err)
	}
	return nil
}

// PutWallet stores a single wallet outside of any transaction
func (a *Accounts) PutWallet(addr crypto.Hash, w *slot.Wallet) error {
	if a.closed.Load() {
		return ErrAccountsClosed
	}
	if w == nil {
		return fmt.Errorf("store wallet %s: %w", addr, ErrWalletNotFound)
	}
	if err := a.db.Put(makeKey(prefixWallet, addr), encodeWallet(w)); err != nil {
		return fmt.Errorf("store wallet: %w", err)
	}
	return nil
}

// Commit writes every change in a single batch, either all of them land or
// none do.
func (a *Accounts) Commit(changes Changes) error {
	if a.closed.Load() {
		return ErrAccountsClosed
	}

	batch := a.db.NewBatch()
	defer batch.Close()

	for addr, s := range changes.Slots {
		if s == nil {
			return fmt.Errorf("store slot %s: %w", addr, slot.ErrNoSlot)
		}
		if err := batch.Put(makeKey(prefixSlot, addr), encodeSlot(s)); err != nil {
			return fmt.Errorf("store slot: %w", err)
		}
	}
	for addr, w := range changes.Wallets {
		if w == nil {
			return fmt.Errorf("store wallet %s: %w", addr, ErrWalletNotFound)
		}
		if err := batch.Put(makeKey(prefixWallet, addr), encodeWallet(w)); err != nil {
			return fmt.Errorf("store wallet: %w", err)
		}
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf(ErrFailedBatchCommit, err)
	}

	log.Storage.Debug().
		Int(PrefixToString(prefixSlot), len(changes.Slots)).
		Int(PrefixToString(prefixWallet), len(changes.Wallets)).
		Msg("committed account changes")
	return nil
}

// StoredSlot is a slot together with the address it is stored under
type StoredSlot struct {
	Address crypto.Hash
	Slot    *slot.Slot
}

// Slots returns a copy of every stored slot in address order
func (a *Accounts) Slots() ([]StoredSlot, error) {
	if a.closed.Load() {
		return nil, ErrAccountsClosed
	}

	iter, err := a.db.NewIterator([]byte{prefixSlot}, []byte{prefixSlot + 1})
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer iter.Close()

	var slots []StoredSlot
	for iter.Next() {
		key := iter.Key()
		if len(key) != 1+crypto.HashSize {
			continue
		}
		addr := crypto.Hash(key[1:])

		raw, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read slot %s: %w", addr, err)
		}
		s, err := decodeSlot(raw)
		if err != nil {
			return nil, fmt.Errorf("read slot %s: %w", addr, err)
		}
		slots = append(slots, StoredSlot{Address: addr, Slot: s})
	}
	return slots, nil
}

// Close marks the store as closed and closes the underlying database
func (a *Accounts) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	return a.db.Close()
}

// encodeSlot lays a slot out as its 8 byte little endian balance followed by
// the raw data.
func encodeSlot(s *slot.Slot) []byte {
	out := make([]byte, balanceSize+len(s.Data))
	binary.LittleEndian.PutUint64(out, s.Balance)
	copy(out[balanceSize:], s.Data)
	return out
}

func encodeWallet(w *slot.Wallet) []byte {
	out := make([]byte, balanceSize)
	binary.LittleEndian.PutUint64(out, w.Lamports)
	return out
}

func decodeSlot(raw []byte) (*slot.Slot, error) {
	if len(raw) < balanceSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptSlot, len(raw))
	}
	data := make([]byte, len(raw)-balanceSize)
	copy(data, raw[balanceSize:])
	return &slot.Slot{
		Balance: binary.LittleEndian.Uint64(raw),
		Data:    data,
	}, nil
}
