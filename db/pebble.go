package db

import (
	"errors"
	"io"
	"sync"

	"github.com/NethermindEth/starkcheck/utils"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const megabyte = 1 << 20

type pebbleDB struct {
	pebble *pebble.DB
	wMutex sync.Mutex
}

var _ DB = (*pebbleDB)(nil)

// NewPebble opens a pebble backed database at the given path.
func NewPebble(path string, logger utils.Logger) (DB, error) {
	return newPebble(path, &pebble.Options{
		Logger:       logger,
		MemTableSize: 64 * megabyte,
	})
}

// NewMemPebble opens a pebble database backed by an in-memory filesystem.
func NewMemPebble() (DB, error) {
	return newPebble("", &pebble.Options{
		FS: vfs.NewMem(),
	})
}

func newPebble(path string, options *pebble.Options) (DB, error) {
	pDB, err := pebble.Open(path, options)
	if err != nil {
		return nil, err
	}
	return &pebbleDB{pebble: pDB}, nil
}

// NewTransaction : see db.DB.NewTransaction
func (d *pebbleDB) NewTransaction(update bool) Transaction {
	txn := &pebbleTxn{}
	if update {
		d.wMutex.Lock()
		txn.lock = &d.wMutex
		txn.batch = d.pebble.NewIndexedBatch()
	} else {
		txn.snapshot = d.pebble.NewSnapshot()
	}
	return txn
}

// Close : see io.Closer.Close
func (d *pebbleDB) Close() error {
	return d.pebble.Close()
}

// View : see db.DB.View
func (d *pebbleDB) View(fn func(txn Transaction) error) error {
	txn := d.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}

// Update : see db.DB.Update
func (d *pebbleDB) Update(fn func(txn Transaction) error) error {
	txn := d.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// Impl : see db.DB.Impl
func (d *pebbleDB) Impl() any {
	return d.pebble
}

type pebbleTxn struct {
	batch    *pebble.Batch
	snapshot *pebble.Snapshot
	lock     *sync.Mutex
}

var _ Transaction = (*pebbleTxn)(nil)

// Discard : see db.Transaction.Discard
func (t *pebbleTxn) Discard() {
	if t.batch != nil {
		t.batch.Close()
		t.batch = nil
	}
	if t.snapshot != nil {
		t.snapshot.Close()
		t.snapshot = nil
	}
	if t.lock != nil {
		t.lock.Unlock()
		t.lock = nil
	}
}

// Commit : see db.Transaction.Commit
func (t *pebbleTxn) Commit() error {
	defer t.Discard()
	if t.batch == nil {
		return ErrDiscardedTransaction
	}
	return t.batch.Commit(pebble.Sync)
}

// Set : see db.Transaction.Set
func (t *pebbleTxn) Set(key, val []byte) error {
	if t.batch == nil {
		return ErrReadOnlyTransaction
	}
	return t.batch.Set(key, val, pebble.Sync)
}

// Delete : see db.Transaction.Delete
func (t *pebbleTxn) Delete(key []byte) error {
	if t.batch == nil {
		return ErrReadOnlyTransaction
	}
	return t.batch.Delete(key, pebble.Sync)
}

// Get : see db.Transaction.Get
func (t *pebbleTxn) Get(key []byte, cb func([]byte) error) error {
	var (
		val    []byte
		closer io.Closer
		err    error
	)
	switch {
	case t.batch != nil:
		val, closer, err = t.batch.Get(key)
	case t.snapshot != nil:
		val, closer, err = t.snapshot.Get(key)
	default:
		return ErrDiscardedTransaction
	}
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrKeyNotFound
		}
		return err
	}
	defer closer.Close() //nolint:errcheck
	return cb(val)
}

// NewIterator : see db.Transaction.NewIterator
func (t *pebbleTxn) NewIterator() (Iterator, error) {
	var (
		iter *pebble.Iterator
		err  error
	)
	switch {
	case t.batch != nil:
		iter, err = t.batch.NewIter(nil)
	case t.snapshot != nil:
		iter, err = t.snapshot.NewIter(nil)
	default:
		return nil, ErrDiscardedTransaction
	}
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{iter: iter}, nil
}

// Impl : see db.Transaction.Impl
func (t *pebbleTxn) Impl() any {
	if t.batch != nil {
		return t.batch
	}
	return t.snapshot
}

type pebbleIterator struct {
	iter *pebble.Iterator
}

var _ Iterator = (*pebbleIterator)(nil)

func (i *pebbleIterator) Valid() bool {
	return i.iter.Valid()
}

func (i *pebbleIterator) Next() bool {
	return i.iter.Next()
}

func (i *pebbleIterator) Key() []byte {
	return i.iter.Key()
}

func (i *pebbleIterator) Value() ([]byte, error) {
	return i.iter.ValueAndErr()
}

func (i *pebbleIterator) Seek(key []byte) bool {
	return i.iter.SeekGE(key)
}

func (i *pebbleIterator) Close() error {
	return i.iter.Close()
}
