package db

import (
	"errors"
	"io"
)

var (
	ErrKeyNotFound = errors.New("key not found")

	ErrDiscardedTransaction = errors.New("discarded txn")
	ErrReadOnlyTransaction  = errors.New("read only transaction")
)

// DB is a transactional key value store. A write transaction owns the store
// exclusively until it is committed or discarded.
type DB interface {
	io.Closer

	// NewTransaction returns a transaction on this database. A write
	// transaction blocks other writers until Commit or Discard is called.
	NewTransaction(update bool) Transaction

	// View creates a read-only transaction and runs fn inside it.
	View(fn func(txn Transaction) error) error

	// Update creates a read-write transaction, runs fn inside it and commits
	// unless fn errored.
	Update(fn func(txn Transaction) error) error

	// Impl returns the underlying database object.
	Impl() any
}

// Transaction provides an atomic view on the database. Writes are invisible
// to other transactions until Commit.
type Transaction interface {
	// Discard drops the transaction's pending writes and releases any held
	// resources. Safe to call after Commit.
	Discard()

	// Commit atomically applies the transaction's writes.
	Commit() error

	// Set updates the value for the given key.
	Set(key, val []byte) error

	// Delete removes the key from the database.
	Delete(key []byte) error

	// Get fetches the value for the given key and passes it to cb. The value
	// is only valid for the duration of the callback. Returns ErrKeyNotFound
	// when the key is absent.
	Get(key []byte, cb func(val []byte) error) error

	// NewIterator returns an iterator over the transaction's view of the
	// database.
	NewIterator() (Iterator, error)

	// Impl returns the underlying transaction object.
	Impl() any
}
