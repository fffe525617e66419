package migration_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/gate"
	"github.com/eigerco/stakeslot/internal/migration"
	"github.com/eigerco/stakeslot/internal/slot"
)

var openGate = gate.New(map[gate.Operation]gate.Availability{
	gate.OpResize:    gate.Open,
	gate.OpFillZeros: gate.Open,
})

func newRecord(t *testing.T, capacity, used int, fill byte) migration.Record {
	minimum, err := slot.DefaultRent.MinimumBalance(capacity)
	require.NoError(t, err)

	pool := crypto.HashData([]byte("pool"))
	mint := crypto.HashData([]byte("mint"))
	return migration.Record{
		Address:  migration.StakeEntryAddress(pool, mint),
		Slot:     &slot.Slot{Data: bytes.Repeat([]byte{fill}, capacity), Balance: minimum},
		UsedSize: used,
	}
}

func TestResize_ClosedGateRejectsEverything(t *testing.T) {
	m := migration.New(gate.Deployed, slot.DefaultRent)

	targets := []int{0, 1, 40, 64, 200, -1, slot.MaxCapacity + 1}
	for _, target := range targets {
		rec := newRecord(t, 64, 40, 0x5A)
		original := bytes.Clone(rec.Slot.Data)
		balance := rec.Slot.Balance
		payer := &slot.Wallet{Lamports: math.MaxUint32}

		state, err := m.Resize(rec, target, payer)
		require.ErrorIs(t, err, gate.ErrInstructionNotSupported, "target %d", target)
		assert.Equal(t, migration.Rejected, state)

		assert.Equal(t, original, rec.Slot.Data)
		assert.Equal(t, balance, rec.Slot.Balance)
		assert.Equal(t, uint64(math.MaxUint32), payer.Lamports)
	}
}

func TestResize_ClosedGateBeforeInputValidation(t *testing.T) {
	m := migration.New(gate.Deployed, slot.DefaultRent)

	state, err := m.Resize(migration.Record{}, -5, nil)
	require.ErrorIs(t, err, gate.ErrInstructionNotSupported)
	assert.Equal(t, migration.Rejected, state)

	state, err = m.FillZeros(migration.Record{UsedSize: 10})
	require.ErrorIs(t, err, gate.ErrInstructionNotSupported)
	assert.Equal(t, migration.Rejected, state)
}

func TestFillZeros_ClosedGateLeavesBytes(t *testing.T) {
	m := migration.New(gate.Deployed, slot.DefaultRent)

	for used := 0; used <= 64; used += 8 {
		rec := newRecord(t, 64, used, 0xEE)
		original := bytes.Clone(rec.Slot.Data)

		state, err := m.FillZeros(rec)
		require.ErrorIs(t, err, gate.ErrInstructionNotSupported)
		assert.Equal(t, migration.Rejected, state)
		assert.Equal(t, original, rec.Slot.Data)
	}
}

func TestResize_ScenarioSameSizeClosed(t *testing.T) {
	m := migration.New(gate.Deployed, slot.DefaultRent)
	rec := newRecord(t, 64, 40, 0x11)
	original := bytes.Clone(rec.Slot.Data)

	state, err := m.Resize(rec, 64, &slot.Wallet{})
	require.ErrorIs(t, err, gate.ErrInstructionNotSupported)
	assert.Equal(t, migration.Rejected, state)
	assert.Len(t, rec.Slot.Data, 64)
	assert.Equal(t, original, rec.Slot.Data)
}

func TestResize_OpenGateGrowThenFill(t *testing.T) {
	m := migration.New(openGate, slot.DefaultRent)
	rec := newRecord(t, 100, 100, 0x42)
	payer := &slot.Wallet{Lamports: math.MaxUint32}

	state, err := m.Resize(rec, 200, payer)
	require.NoError(t, err)
	assert.Equal(t, migration.Completed, state)
	assert.Equal(t, bytes.Repeat([]byte{0x42}, 100), rec.Slot.Data[:100])

	minimum, err := slot.DefaultRent.MinimumBalance(200)
	require.NoError(t, err)
	assert.Equal(t, minimum, rec.Slot.Balance)

	state, err = m.FillZeros(rec)
	require.NoError(t, err)
	assert.Equal(t, migration.Completed, state)

	zeroed, err := rec.TailZeroed()
	require.NoError(t, err)
	assert.True(t, zeroed)
	assert.Equal(t, bytes.Repeat([]byte{0x42}, 100), rec.Slot.Data[:100])
}

func TestResize_OpenGateFailures(t *testing.T) {
	m := migration.New(openGate, slot.DefaultRent)

	rec := newRecord(t, 64, 40, 0x01)
	state, err := m.Resize(rec, 200, &slot.Wallet{Lamports: 1})
	require.ErrorIs(t, err, slot.ErrInsufficientFunding)
	assert.Equal(t, migration.Failed, state)
	assert.Len(t, rec.Slot.Data, 64)

	state, err = m.Resize(rec, -1, &slot.Wallet{})
	require.ErrorIs(t, err, slot.ErrInvalidCapacity)
	assert.Equal(t, migration.Failed, state)

	state, err = m.Resize(migration.Record{}, 10, &slot.Wallet{})
	require.ErrorIs(t, err, slot.ErrNoSlot)
	assert.Equal(t, migration.Failed, state)
}

func TestFillZeros_OpenGate(t *testing.T) {
	m := migration.New(openGate, slot.DefaultRent)

	t.Run("idempotent", func(t *testing.T) {
		rec := newRecord(t, 64, 40, 0x99)

		_, err := m.FillZeros(rec)
		require.NoError(t, err)
		once := bytes.Clone(rec.Slot.Data)

		state, err := m.FillZeros(rec)
		require.NoError(t, err)
		assert.Equal(t, migration.Completed, state)
		assert.Equal(t, once, rec.Slot.Data)

		assert.Equal(t, bytes.Repeat([]byte{0x99}, 40), rec.Slot.Data[:40])
		assert.Equal(t, make([]byte, 24), rec.Slot.Data[40:])
	})

	t.Run("used prefix larger than slot", func(t *testing.T) {
		rec := newRecord(t, 32, 40, 0x99)

		state, err := m.FillZeros(rec)
		require.ErrorIs(t, err, slot.ErrRangeOutOfBounds)
		assert.Equal(t, migration.Failed, state)
		assert.Equal(t, bytes.Repeat([]byte{0x99}, 32), rec.Slot.Data)
	})

	t.Run("missing slot", func(t *testing.T) {
		state, err := m.FillZeros(migration.Record{})
		require.ErrorIs(t, err, slot.ErrNoSlot)
		assert.Equal(t, migration.Failed, state)
	})
}

func TestShrinkGrowNeedsFill(t *testing.T) {
	m := migration.New(openGate, slot.DefaultRent)
	rec := newRecord(t, 200, 100, 0xCD)
	payer := &slot.Wallet{}

	_, err := m.Resize(rec, 100, payer)
	require.NoError(t, err)
	_, err = m.Resize(rec, 200, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), payer.Lamports)

	_, err = m.FillZeros(rec)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 100), rec.Slot.Data[100:])
}

func TestStakeEntrySize(t *testing.T) {
	assert.Equal(t, 199, migration.StakeEntrySize)
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, migration.Pending.Terminal())
	assert.False(t, migration.Executing.Terminal())
	assert.True(t, migration.Rejected.Terminal())
	assert.True(t, migration.Completed.Terminal())
	assert.True(t, migration.Failed.Terminal())
	assert.Equal(t, "rejected", migration.Rejected.String())
}
