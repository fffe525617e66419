package pebble

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/stakeslot/pkg/db"
)

// Batch collects writes and applies them in one synced commit. The pebble
// batch is handed back to pebble as soon as the Batch is committed or closed.
type Batch struct {
	batch *pebble.Batch
	done  atomic.Bool
}

func (p *KVStore) NewBatch() db.Batch {
	return &Batch{
		batch: p.db.NewBatch(),
	}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

// Commit applies every write of the batch at once, or none of them. A batch
// whose commit failed stays open and must still be closed.
func (b *Batch) Commit() error {
	if b.done.Load() {
		return ErrBatchDone
	}
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	return b.release()
}

// Close discards an uncommitted batch. Closing a done batch is a no-op.
func (b *Batch) Close() error {
	if b.done.Load() {
		return nil
	}
	return b.release()
}

func (b *Batch) release() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	err := b.batch.Close()
	b.batch = nil
	return err
}
