package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/slot"
	"github.com/eigerco/stakeslot/internal/testutils"
	"github.com/eigerco/stakeslot/pkg/db/pebble"
)

func newStore(t *testing.T) *Accounts {
	return NewAccounts(testutils.NewMemoryStore(t))
}

func Test_PutGetSlot(t *testing.T) {
	accounts := newStore(t)
	addr := testutils.RandomHash(t)
	s := &slot.Slot{Data: testutils.RandomBytes(t, 199), Balance: 2_276_160}

	err := accounts.PutSlot(addr, s)
	require.NoError(t, err)

	got, err := accounts.GetSlot(addr)
	require.NoError(t, err)
	require.Equal(t, s, got)

	// the returned slot is a private copy
	got.Data[0] ^= 0xFF
	again, err := accounts.GetSlot(addr)
	require.NoError(t, err)
	require.Equal(t, s.Data, again.Data)
}

func Test_EmptySlotRoundTrip(t *testing.T) {
	accounts := newStore(t)
	addr := testutils.RandomHash(t)

	require.NoError(t, accounts.PutSlot(addr, &slot.Slot{Data: []byte{}, Balance: 890_880}))

	got, err := accounts.GetSlot(addr)
	require.NoError(t, err)
	require.Equal(t, 0, got.Capacity())
	require.Equal(t, uint64(890_880), got.Balance)
}

func Test_PutGetWallet(t *testing.T) {
	accounts := newStore(t)
	addr := testutils.RandomHash(t)

	require.NoError(t, accounts.PutWallet(addr, &slot.Wallet{Lamports: 42}))

	got, err := accounts.GetWallet(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Lamports)
}

func Test_NotFound(t *testing.T) {
	accounts := newStore(t)

	_, err := accounts.GetSlot(testutils.RandomHash(t))
	require.ErrorIs(t, err, ErrSlotNotFound)

	_, err = accounts.GetWallet(testutils.RandomHash(t))
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func Test_CorruptValues(t *testing.T) {
	kv := testutils.NewMemoryStore(t)
	accounts := NewAccounts(kv)
	addr := testutils.RandomHash(t)

	require.NoError(t, kv.Put(makeKey(prefixSlot, addr), []byte{1, 2, 3}))
	_, err := accounts.GetSlot(addr)
	require.ErrorIs(t, err, ErrCorruptSlot)

	require.NoError(t, kv.Put(makeKey(prefixWallet, addr), []byte{1, 2, 3}))
	_, err = accounts.GetWallet(addr)
	require.ErrorIs(t, err, ErrCorruptWallet)
}

func Test_CommitIsAllOrNothing(t *testing.T) {
	accounts := newStore(t)
	entry := testutils.RandomHash(t)
	payer := testutils.RandomHash(t)

	changes := NewChanges()
	changes.Slots[entry] = &slot.Slot{Data: make([]byte, 10), Balance: 1}
	changes.Wallets[payer] = nil

	err := accounts.Commit(changes)
	require.Error(t, err)

	_, err = accounts.GetSlot(entry)
	require.ErrorIs(t, err, ErrSlotNotFound)

	changes.Wallets[payer] = &slot.Wallet{Lamports: 7}
	require.NoError(t, accounts.Commit(changes))

	s, err := accounts.GetSlot(entry)
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.Balance)
	w, err := accounts.GetWallet(payer)
	require.NoError(t, err)
	require.Equal(t, uint64(7), w.Lamports)
}

func Test_PutNil(t *testing.T) {
	accounts := newStore(t)
	addr := testutils.RandomHash(t)

	require.ErrorIs(t, accounts.PutSlot(addr, nil), slot.ErrNoSlot)
	require.ErrorIs(t, accounts.PutWallet(addr, nil), ErrWalletNotFound)

	_, err := accounts.GetSlot(addr)
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func Test_Slots(t *testing.T) {
	kv := testutils.NewMemoryStore(t)
	accounts := NewAccounts(kv)

	a := crypto.Hash{0x01}
	b := crypto.Hash{0x02}
	slotA := &slot.Slot{Data: []byte{}, Balance: 890_880}
	slotB := &slot.Slot{Data: []byte{1, 2, 3}, Balance: 1_000}
	require.NoError(t, accounts.PutSlot(b, slotB))
	require.NoError(t, accounts.PutSlot(a, slotA))
	require.NoError(t, accounts.PutWallet(crypto.Hash{0x00}, &slot.Wallet{Lamports: 5}))

	slots, err := accounts.Slots()
	require.NoError(t, err)
	require.Equal(t, []StoredSlot{
		{Address: a, Slot: slotA},
		{Address: b, Slot: slotB},
	}, slots)

	// a value too short to hold a balance fails the listing
	require.NoError(t, kv.Put(makeKey(prefixSlot, crypto.Hash{0x03}), []byte{1}))
	_, err = accounts.Slots()
	require.ErrorIs(t, err, ErrCorruptSlot)
}

func Test_AccountsClosed(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	accounts := NewAccounts(kv)

	require.NoError(t, accounts.Close())
	// Closing a closed store should have no effect/error
	require.NoError(t, accounts.Close())

	_, err = accounts.GetSlot(testutils.RandomHash(t))
	require.Equal(t, ErrAccountsClosed, err)
	_, err = accounts.GetWallet(testutils.RandomHash(t))
	require.Equal(t, ErrAccountsClosed, err)
	require.Equal(t, ErrAccountsClosed, accounts.PutWallet(testutils.RandomHash(t), &slot.Wallet{}))
	require.Equal(t, ErrAccountsClosed, accounts.PutSlot(testutils.RandomHash(t), &slot.Slot{}))
	require.Equal(t, ErrAccountsClosed, accounts.Commit(NewChanges()))
	_, err = accounts.Slots()
	require.Equal(t, ErrAccountsClosed, err)
}

func Test_PrefixToString(t *testing.T) {
	require.Equal(t, "slot", PrefixToString(prefixSlot))
	require.Equal(t, "wallet", PrefixToString(prefixWallet))
	require.Equal(t, "unknown", PrefixToString(0xFF))
}
