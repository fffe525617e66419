package db

// KVStore is the key-value storage the account layer persists slots and
// wallets in.
type KVStore interface {
	Reader
	Writer
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Reader interface {
	// Get returns a copy of the value stored under key
	Get(key []byte) ([]byte, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch is a set of writes applied atomically on Commit. Closing a batch
// that was not committed discards it.
type Batch interface {
	Writer
	Commit() error
	Close() error
}

// Iterator walks a key range in order. Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
