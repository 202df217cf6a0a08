package db

import "io"

// Iterator walks a database's key/value pairs in ascending key order. It must
// be closed after use. A single iterator cannot be used concurrently.
type Iterator interface {
	io.Closer

	// Valid returns true if the iterator is positioned at a valid key/value pair.
	Valid() bool

	// Next moves the iterator to the next key/value pair. It returns whether
	// the iterator is valid after the call. Once invalid, the iterator
	// remains invalid.
	Next() bool

	// Key returns the key at the current position.
	Key() []byte

	// Value returns the value at the current position.
	Value() ([]byte, error)

	// Seek positions the iterator at the given key if present, otherwise at
	// the next key in lexicographical order.
	Seek(key []byte) bool
}
