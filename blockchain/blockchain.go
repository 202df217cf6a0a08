package blockchain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/db"
	"github.com/NethermindEth/starkcheck/encoder"
	"github.com/NethermindEth/starkcheck/utils"
)

// Blockchain is the persistence layer: block headers, state updates and the
// per-block trie roots keyed by block number.
type Blockchain struct {
	network  utils.Network
	database db.DB
}

func New(database db.DB, network utils.Network) *Blockchain {
	return &Blockchain{
		database: database,
		network:  network,
	}
}

func (b *Blockchain) Network() utils.Network {
	return b.network
}

func (b *Blockchain) Database() db.DB {
	return b.database
}

// StoreBlockHeader persists the header under its block number.
func (b *Blockchain) StoreBlockHeader(header *core.Header) error {
	return b.database.Update(func(txn db.Transaction) error {
		return StoreBlockHeader(txn, header)
	})
}

// BlockHeaderByNumber reads the header stored for the given block number.
func (b *Blockchain) BlockHeaderByNumber(number uint64) (*core.Header, error) {
	var header *core.Header
	return header, b.database.View(func(txn db.Transaction) error {
		var err error
		header, err = BlockHeaderByNumber(txn, number)
		return err
	})
}

// StateUpdateByNumber reads the state update stored for the given block number.
func (b *Blockchain) StateUpdateByNumber(number uint64) (*core.StateUpdate, error) {
	var update *core.StateUpdate
	return update, b.database.View(func(txn db.Transaction) error {
		var err error
		update, err = StateUpdateByNumber(txn, number)
		return err
	})
}

// HighestStateUpdate returns the number of the latest applied state update.
// db.ErrKeyNotFound is returned when no state update has been applied yet.
func (b *Blockchain) HighestStateUpdate() (uint64, error) {
	var highest uint64
	return highest, b.database.View(func(txn db.Transaction) error {
		var err error
		highest, err = HighestStateUpdate(txn)
		return err
	})
}

// StateCommitmentByNumber combines the stored trie roots for the given block
// into the global state commitment.
func (b *Blockchain) StateCommitmentByNumber(number uint64) (*felt.Felt, error) {
	var commitment *felt.Felt
	return commitment, b.database.View(func(txn db.Transaction) error {
		var err error
		commitment, err = StateCommitmentByNumber(txn, number)
		return err
	})
}

func blockNumberBytes(number uint64) []byte {
	numBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(numBytes, number)
	return numBytes
}

// StoreBlockHeader stores the header within the given transaction.
func StoreBlockHeader(txn db.Transaction, header *core.Header) error {
	headerBytes, err := encoder.Marshal(header)
	if err != nil {
		return err
	}
	return txn.Set(db.BlockHeadersByNumber.Key(blockNumberBytes(header.Number)), headerBytes)
}

// BlockHeaderByNumber reads the header for the given block number within the
// given transaction.
func BlockHeaderByNumber(txn db.Transaction, number uint64) (*core.Header, error) {
	header := new(core.Header)
	err := txn.Get(db.BlockHeadersByNumber.Key(blockNumberBytes(number)), func(val []byte) error {
		return encoder.Unmarshal(val, header)
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// StoreStateUpdate stores the state update under the given block number and
// advances the applied head when the number is past it.
func StoreStateUpdate(txn db.Transaction, number uint64, update *core.StateUpdate) error {
	updateBytes, err := encoder.Marshal(update)
	if err != nil {
		return err
	}
	if err = txn.Set(db.StateUpdatesByBlockNumber.Key(blockNumberBytes(number)), updateBytes); err != nil {
		return err
	}

	highest, err := HighestStateUpdate(txn)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	if err == nil && highest >= number {
		return nil
	}
	return txn.Set(db.StateUpdateHead.Key(), blockNumberBytes(number))
}

// StateUpdateByNumber reads the state update for the given block number within
// the given transaction.
func StateUpdateByNumber(txn db.Transaction, number uint64) (*core.StateUpdate, error) {
	update := new(core.StateUpdate)
	err := txn.Get(db.StateUpdatesByBlockNumber.Key(blockNumberBytes(number)), func(val []byte) error {
		return encoder.Unmarshal(val, update)
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// HighestStateUpdate reads the number of the latest applied state update.
func HighestStateUpdate(txn db.Transaction) (uint64, error) {
	var highest uint64
	err := txn.Get(db.StateUpdateHead.Key(), func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("state update head: expected 8 bytes, got %d", len(val))
		}
		highest = binary.BigEndian.Uint64(val)
		return nil
	})
	return highest, err
}

type trieRoots struct {
	Storage felt.Felt `cbor:"1,keyasint"`
	Classes felt.Felt `cbor:"2,keyasint"`
}

// StoreTrieRoots stores the storage and class trie roots for the given block.
func StoreTrieRoots(txn db.Transaction, number uint64, storageRoot, classesRoot *felt.Felt) error {
	roots := trieRoots{
		Storage: *storageRoot,
		Classes: *classesRoot,
	}
	rootsBytes, err := encoder.Marshal(&roots)
	if err != nil {
		return err
	}
	return txn.Set(db.TrieRootsByBlockNumber.Key(blockNumberBytes(number)), rootsBytes)
}

// TrieRootsByNumber reads the storage and class trie roots stored for the
// given block.
func TrieRootsByNumber(txn db.Transaction, number uint64) (storageRoot, classesRoot *felt.Felt, err error) {
	roots := new(trieRoots)
	err = txn.Get(db.TrieRootsByBlockNumber.Key(blockNumberBytes(number)), func(val []byte) error {
		return encoder.Unmarshal(val, roots)
	})
	if err != nil {
		return nil, nil, err
	}
	return &roots.Storage, &roots.Classes, nil
}

// StateCommitmentByNumber combines the trie roots stored for the given block
// into the global state commitment.
func StateCommitmentByNumber(txn db.Transaction, number uint64) (*felt.Felt, error) {
	storageRoot, classesRoot, err := TrieRootsByNumber(txn, number)
	if err != nil {
		return nil, err
	}
	return core.StateCommitment(storageRoot, classesRoot), nil
}
