package db

import (
	"slices"
	"strings"
	"sync"
)

// memoryDB is a map backed DB used in tests. Writes are buffered in the
// transaction and applied on Commit, so a discarded transaction leaves the
// store untouched.
type memoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ DB = (*memoryDB)(nil)

// NewMemDB creates an empty in-memory database.
func NewMemDB() DB {
	return &memoryDB{data: make(map[string][]byte)}
}

// NewTransaction : see db.DB.NewTransaction
func (d *memoryDB) NewTransaction(update bool) Transaction {
	if update {
		d.mu.Lock()
	} else {
		d.mu.RLock()
	}
	return &memoryTxn{
		db:      d,
		update:  update,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Close : see io.Closer.Close
func (d *memoryDB) Close() error {
	return nil
}

// View : see db.DB.View
func (d *memoryDB) View(fn func(txn Transaction) error) error {
	txn := d.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}

// Update : see db.DB.Update
func (d *memoryDB) Update(fn func(txn Transaction) error) error {
	txn := d.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// Impl : see db.DB.Impl
func (d *memoryDB) Impl() any {
	return d.data
}

type memoryTxn struct {
	db      *memoryDB
	update  bool
	done    bool
	pending map[string][]byte
	deleted map[string]struct{}
}

var _ Transaction = (*memoryTxn)(nil)

// Discard : see db.Transaction.Discard
func (t *memoryTxn) Discard() {
	if t.done {
		return
	}
	t.done = true
	if t.update {
		t.db.mu.Unlock()
	} else {
		t.db.mu.RUnlock()
	}
}

// Commit : see db.Transaction.Commit
func (t *memoryTxn) Commit() error {
	if t.done {
		return ErrDiscardedTransaction
	}
	if !t.update {
		t.Discard()
		return ErrReadOnlyTransaction
	}
	for key := range t.deleted {
		delete(t.db.data, key)
	}
	for key, val := range t.pending {
		t.db.data[key] = val
	}
	t.Discard()
	return nil
}

// Set : see db.Transaction.Set
func (t *memoryTxn) Set(key, val []byte) error {
	if t.done {
		return ErrDiscardedTransaction
	}
	if !t.update {
		return ErrReadOnlyTransaction
	}
	delete(t.deleted, string(key))
	t.pending[string(key)] = slices.Clone(val)
	return nil
}

// Delete : see db.Transaction.Delete
func (t *memoryTxn) Delete(key []byte) error {
	if t.done {
		return ErrDiscardedTransaction
	}
	if !t.update {
		return ErrReadOnlyTransaction
	}
	delete(t.pending, string(key))
	t.deleted[string(key)] = struct{}{}
	return nil
}

// Get : see db.Transaction.Get
func (t *memoryTxn) Get(key []byte, cb func([]byte) error) error {
	if t.done {
		return ErrDiscardedTransaction
	}
	if _, gone := t.deleted[string(key)]; gone {
		return ErrKeyNotFound
	}
	if val, found := t.pending[string(key)]; found {
		return cb(val)
	}
	if val, found := t.db.data[string(key)]; found {
		return cb(val)
	}
	return ErrKeyNotFound
}

// NewIterator : see db.Transaction.NewIterator
func (t *memoryTxn) NewIterator() (Iterator, error) {
	if t.done {
		return nil, ErrDiscardedTransaction
	}

	merged := make(map[string][]byte, len(t.db.data)+len(t.pending))
	for key, val := range t.db.data {
		merged[key] = val
	}
	for key := range t.deleted {
		delete(merged, key)
	}
	for key, val := range t.pending {
		merged[key] = val
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return &memoryIterator{data: merged, keys: keys, cursor: -1}, nil
}

// Impl : see db.Transaction.Impl
func (t *memoryTxn) Impl() any {
	return t.pending
}

// memoryIterator walks a sorted snapshot of the merged transaction view.
type memoryIterator struct {
	data   map[string][]byte
	keys   []string
	cursor int
}

var _ Iterator = (*memoryIterator)(nil)

func (i *memoryIterator) Valid() bool {
	return i.cursor >= 0 && i.cursor < len(i.keys)
}

func (i *memoryIterator) Next() bool {
	i.cursor++
	return i.Valid()
}

func (i *memoryIterator) Key() []byte {
	return []byte(i.keys[i.cursor])
}

func (i *memoryIterator) Value() ([]byte, error) {
	return i.data[i.keys[i.cursor]], nil
}

func (i *memoryIterator) Seek(key []byte) bool {
	i.cursor, _ = slices.BinarySearchFunc(i.keys, string(key), strings.Compare)
	return i.Valid()
}

func (i *memoryIterator) Close() error {
	i.keys = nil
	i.data = nil
	return nil
}
