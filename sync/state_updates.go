package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/starkcheck/blockchain"
	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/db"
	"github.com/NethermindEth/starkcheck/utils"
)

// UnverifiedDiff is a state diff as fetched from a peer, paired with the
// commitment its block header promises for it.
type UnverifiedDiff struct {
	Number             uint64
	ProtocolVersion    string
	ExpectedCommitment *felt.Felt
	Diff               *core.StateDiff
}

// VerifyDiff checks fetched state diffs against their header commitments.
type VerifyDiff struct {
	log utils.SimpleLogger
}

var _ Stage[*UnverifiedDiff, *core.StateDiff] = (*VerifyDiff)(nil)

func NewVerifyDiff(log utils.SimpleLogger) *VerifyDiff {
	return &VerifyDiff{log: log}
}

func (v *VerifyDiff) Name() string {
	return "VerifyStateDiffs"
}

func (v *VerifyDiff) Process(_ context.Context, diff *UnverifiedDiff) (*core.StateDiff, error) {
	version, err := core.ParseBlockVersion(diff.ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("parse protocol version of block %d: %w", diff.Number, err)
	}

	commitment := diff.Diff.Commitment(version)
	if !commitment.Equal(diff.ExpectedCommitment) {
		return nil, fmt.Errorf("block %d: %w: expected %s, computed %s",
			diff.Number, ErrStateDiffCommitmentMismatch, diff.ExpectedCommitment, commitment)
	}
	v.log.Debugw("Verified state diff", "blockNumber", diff.Number, "commitment", commitment)
	return diff.Diff, nil
}

// UpdateState applies verified state diffs to the state tries and persists
// the resulting state update. Diffs must arrive in block order; the stage
// tracks the next block to apply itself.
type UpdateState struct {
	database         db.DB
	updater          core.StateUpdater
	verifyTrieHashes bool
	currentBlock     uint64
	log              utils.SimpleLogger
}

var _ Stage[*core.StateDiff, uint64] = (*UpdateState)(nil)

func NewUpdateState(database db.DB, updater core.StateUpdater, startBlock uint64,
	verifyTrieHashes bool, log utils.SimpleLogger,
) *UpdateState {
	return &UpdateState{
		database:         database,
		updater:          updater,
		verifyTrieHashes: verifyTrieHashes,
		currentBlock:     startBlock,
		log:              log,
	}
}

func (u *UpdateState) Name() string {
	return "UpdateStarknetState"
}

// CurrentBlock returns the number of the next block to apply.
func (u *UpdateState) CurrentBlock() uint64 {
	return u.currentBlock
}

// Process applies the diff for the current block. Either the trie roots and
// the state update are all persisted, or nothing is.
func (u *UpdateState) Process(_ context.Context, diff *core.StateDiff) (uint64, error) {
	number := u.currentBlock

	txn := u.database.NewTransaction(true)
	defer txn.Discard()

	header, err := blockchain.BlockHeaderByNumber(txn, number)
	if err != nil {
		return 0, fmt.Errorf("header for block %d: %w", number, err)
	}

	oldRoot, err := parentStateCommitment(txn, number)
	if err != nil {
		return 0, fmt.Errorf("parent state commitment of block %d: %w", number, err)
	}

	storageRoot, classesRoot, err := u.updater.ApplyStateDiff(txn, number, diff, u.verifyTrieHashes)
	if err != nil {
		return 0, fmt.Errorf("apply state diff of block %d: %w", number, err)
	}

	commitment := core.StateCommitment(storageRoot, classesRoot)
	if !commitment.Equal(header.GlobalStateRoot) {
		return 0, fmt.Errorf("block %d: %w: expected %s, computed %s",
			number, ErrStateRootMismatch, header.GlobalStateRoot, commitment)
	}

	if err = blockchain.StoreTrieRoots(txn, number, storageRoot, classesRoot); err != nil {
		return 0, err
	}
	update := &core.StateUpdate{
		BlockHash: header.Hash,
		OldRoot:   oldRoot,
		NewRoot:   header.GlobalStateRoot,
		StateDiff: diff,
	}
	if err = blockchain.StoreStateUpdate(txn, number, update); err != nil {
		return 0, err
	}
	if err = txn.Commit(); err != nil {
		return 0, err
	}

	u.currentBlock++
	u.log.Infow("Updated state", "blockNumber", number, "root", commitment)
	return number, nil
}

// parentStateCommitment is the state commitment before the given block: zero
// at genesis, the combined trie roots of the parent block otherwise.
func parentStateCommitment(txn db.Transaction, number uint64) (*felt.Felt, error) {
	if number == 0 {
		return new(felt.Felt), nil
	}
	return blockchain.StateCommitmentByNumber(txn, number-1)
}

// NextMissingStateUpdate reports the first block at or below head whose state
// update has not been applied yet. The second return is false when state is
// caught up with head, which includes an empty store with head still at
// genesis.
func NextMissingStateUpdate(database db.DB, head uint64) (uint64, bool, error) {
	var highest uint64
	err := database.View(func(txn db.Transaction) error {
		var err error
		highest, err = blockchain.HighestStateUpdate(txn)
		return err
	})
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, head > 0, nil
	} else if err != nil {
		return 0, false, err
	}

	if highest >= head {
		return 0, false, nil
	}
	return highest + 1, true, nil
}
