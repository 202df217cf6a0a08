package db

// Bucket prefixes keys to emulate firstclass buckets on stores that only
// offer a flat keyspace.
type Bucket byte

// Pebble does not support buckets. We use a global prefix list as a poor
// man's bucket alternative.
const (
	StateUpdateHead           Bucket = iota // latest block number with a persisted state update
	BlockHeadersByNumber                    // block number -> header
	StateUpdatesByBlockNumber               // block number -> state update
	TrieRootsByBlockNumber                  // block number -> storage and class trie roots
)

// Key flattens the bucket and the given byte slices into a single key.
func (b Bucket) Key(key ...[]byte) []byte {
	result := []byte{byte(b)}
	for _, k := range key {
		result = append(result, k...)
	}
	return result
}
