package core

import (
	"github.com/NethermindEth/starkcheck/core/crypto"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/db"
)

var stateVersion = new(felt.Felt).SetBytes([]byte(`STARKNET_STATE_V0`))

// StateCommitment combines the storage and class trie roots into the block
// level state commitment. A zero class trie root collapses to the plain
// storage root, preserving commitments of blocks that predate the class trie.
func StateCommitment(storageRoot, classesRoot *felt.Felt) *felt.Felt {
	if classesRoot.IsZero() {
		return storageRoot.Clone()
	}
	return crypto.PedersenArray(stateVersion, storageRoot, classesRoot)
}

//go:generate mockgen -destination=../mocks/mock_state_updater.go -package=mocks github.com/NethermindEth/starkcheck/core StateUpdater

// StateUpdater applies a block's state diff to the persistent storage and
// class Merkle tries and reports the resulting roots. Implementations write
// through the given transaction only; nothing may be persisted outside of it.
// verifyTrieHashes selects whether intermediate trie node hashes are
// recomputed and checked while applying.
type StateUpdater interface {
	ApplyStateDiff(txn db.Transaction, blockNumber uint64, diff *StateDiff,
		verifyTrieHashes bool) (storageRoot, classesRoot *felt.Felt, err error)
}
