package sync_test

import (
	"context"
	"testing"

	"github.com/NethermindEth/starkcheck/blockchain"
	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/db"
	"github.com/NethermindEth/starkcheck/mocks"
	"github.com/NethermindEth/starkcheck/sync"
	"github.com/NethermindEth/starkcheck/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testStateDiff(t *testing.T) *core.StateDiff {
	t.Helper()
	return &core.StateDiff{
		StorageDiffs: map[felt.Felt]map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x5790719f16afe1450b67a92461db7d0e36298d6a5f8bab4f7fd282050e02f4f"): {
				*utils.HexToFelt(t, "0x2"): utils.HexToFelt(t, "0x12"),
			},
		},
		Nonces: map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x5790719f16afe1450b67a92461db7d0e36298d6a5f8bab4f7fd282050e02f4f"): utils.HexToFelt(t, "0x5"),
		},
	}
}

func TestVerifyDiff(t *testing.T) {
	log := utils.NewNopLogger()
	verify := sync.NewVerifyDiff(log)
	assert.Equal(t, "VerifyStateDiffs", verify.Name())

	diff := testStateDiff(t)
	version, err := core.ParseBlockVersion("0.13.2")
	require.NoError(t, err)

	t.Run("matching commitment", func(t *testing.T) {
		verified, err := verify.Process(context.Background(), &sync.UnverifiedDiff{
			Number:             4,
			ProtocolVersion:    "0.13.2",
			ExpectedCommitment: diff.Commitment(version),
			Diff:               diff,
		})
		require.NoError(t, err)
		assert.Same(t, diff, verified)
	})

	t.Run("mismatching commitment", func(t *testing.T) {
		_, err := verify.Process(context.Background(), &sync.UnverifiedDiff{
			Number:             4,
			ProtocolVersion:    "0.13.2",
			ExpectedCommitment: utils.HexToFelt(t, "0xdeadbeef"),
			Diff:               diff,
		})
		require.ErrorIs(t, err, sync.ErrStateDiffCommitmentMismatch)
		assert.ErrorContains(t, err, "block 4")
	})

	t.Run("commitment is version dependent", func(t *testing.T) {
		// A commitment derived for 0.13.2 must not verify a pre 0.13.2 block.
		_, err := verify.Process(context.Background(), &sync.UnverifiedDiff{
			Number:             4,
			ProtocolVersion:    "0.13.1",
			ExpectedCommitment: diff.Commitment(version),
			Diff:               diff,
		})
		require.ErrorIs(t, err, sync.ErrStateDiffCommitmentMismatch)
	})
}

func TestUpdateState(t *testing.T) {
	log := utils.NewNopLogger()
	storageRoot := utils.HexToFelt(t, "0x21b8e5a20fa2a24e259a9c4d55c41b0c0e98c4d0e3a1cfe36e3d3c10ec62c27")
	classesRoot := utils.HexToFelt(t, "0x7cd4bb7adba4a3dbe3a6a47da18e9e8e17ede0a70a746d92ba1abbe0f230f32")

	t.Run("genesis block", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := db.NewMemDB()
		diff := testStateDiff(t)

		header := &core.Header{
			Hash:            utils.HexToFelt(t, "0xbeef"),
			Number:          0,
			GlobalStateRoot: core.StateCommitment(storageRoot, classesRoot),
		}
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreBlockHeader(txn, header)
		}))

		updater := mocks.NewMockStateUpdater(ctrl)
		updater.EXPECT().
			ApplyStateDiff(gomock.Any(), uint64(0), diff, false).
			Return(storageRoot, classesRoot, nil)

		update := sync.NewUpdateState(database, updater, 0, false, log)
		assert.Equal(t, "UpdateStarknetState", update.Name())

		number, err := update.Process(context.Background(), diff)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), number)
		assert.Equal(t, uint64(1), update.CurrentBlock())

		require.NoError(t, database.View(func(txn db.Transaction) error {
			highest, err := blockchain.HighestStateUpdate(txn)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), highest)

			stored, err := blockchain.StateUpdateByNumber(txn, 0)
			require.NoError(t, err)
			assert.Equal(t, header.Hash, stored.BlockHash)
			assert.Equal(t, &felt.Zero, stored.OldRoot)
			assert.Equal(t, header.GlobalStateRoot, stored.NewRoot)
			assert.Equal(t, diff, stored.StateDiff)

			commitment, err := blockchain.StateCommitmentByNumber(txn, 0)
			require.NoError(t, err)
			assert.Equal(t, header.GlobalStateRoot, commitment)
			return nil
		}))
	})

	t.Run("parent roots feed the old root", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := db.NewMemDB()
		diff := testStateDiff(t)

		parentStorageRoot := utils.HexToFelt(t, "0xaaa1")
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreTrieRoots(txn, 6, parentStorageRoot, &felt.Zero)
		}))

		header := &core.Header{
			Hash:            utils.HexToFelt(t, "0x7777"),
			Number:          7,
			GlobalStateRoot: core.StateCommitment(storageRoot, classesRoot),
		}
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreBlockHeader(txn, header)
		}))

		updater := mocks.NewMockStateUpdater(ctrl)
		updater.EXPECT().
			ApplyStateDiff(gomock.Any(), uint64(7), diff, true).
			Return(storageRoot, classesRoot, nil)

		update := sync.NewUpdateState(database, updater, 7, true, log)
		_, err := update.Process(context.Background(), diff)
		require.NoError(t, err)

		stored, err := blockchain.New(database, utils.Mainnet).StateUpdateByNumber(7)
		require.NoError(t, err)
		assert.Equal(t, parentStorageRoot, stored.OldRoot)
	})

	t.Run("state root mismatch leaves the database untouched", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := db.NewMemDB()
		diff := testStateDiff(t)

		header := &core.Header{
			Hash:            utils.HexToFelt(t, "0xbeef"),
			Number:          0,
			GlobalStateRoot: utils.HexToFelt(t, "0x1"),
		}
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreBlockHeader(txn, header)
		}))

		updater := mocks.NewMockStateUpdater(ctrl)
		updater.EXPECT().
			ApplyStateDiff(gomock.Any(), uint64(0), diff, false).
			Return(storageRoot, classesRoot, nil)

		update := sync.NewUpdateState(database, updater, 0, false, log)
		_, err := update.Process(context.Background(), diff)
		require.ErrorIs(t, err, sync.ErrStateRootMismatch)
		assert.Equal(t, uint64(0), update.CurrentBlock())

		require.NoError(t, database.View(func(txn db.Transaction) error {
			_, err := blockchain.HighestStateUpdate(txn)
			assert.ErrorIs(t, err, db.ErrKeyNotFound)
			_, _, err = blockchain.TrieRootsByNumber(txn, 0)
			assert.ErrorIs(t, err, db.ErrKeyNotFound)
			return nil
		}))
	})

	t.Run("repeated block is rejected by the advanced cursor", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := db.NewMemDB()
		diff := testStateDiff(t)

		header := &core.Header{
			Hash:            utils.HexToFelt(t, "0xbeef"),
			Number:          0,
			GlobalStateRoot: core.StateCommitment(storageRoot, classesRoot),
		}
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreBlockHeader(txn, header)
		}))

		updater := mocks.NewMockStateUpdater(ctrl)
		updater.EXPECT().
			ApplyStateDiff(gomock.Any(), uint64(0), diff, false).
			Return(storageRoot, classesRoot, nil)

		update := sync.NewUpdateState(database, updater, 0, false, log)
		_, err := update.Process(context.Background(), diff)
		require.NoError(t, err)
		require.Equal(t, uint64(1), update.CurrentBlock())

		// Feeding the genesis diff a second time is attributed to block 1 and
		// fails there; block 0 is never reapplied.
		_, err = update.Process(context.Background(), diff)
		require.ErrorIs(t, err, db.ErrKeyNotFound)
		assert.ErrorContains(t, err, "header for block 1")
		assert.Equal(t, uint64(1), update.CurrentBlock())
	})

	t.Run("missing header is fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := db.NewMemDB()

		update := sync.NewUpdateState(database, mocks.NewMockStateUpdater(ctrl), 3, false, log)
		_, err := update.Process(context.Background(), testStateDiff(t))
		require.ErrorIs(t, err, db.ErrKeyNotFound)
		assert.ErrorContains(t, err, "header for block 3")
	})
}

func TestNextMissingStateUpdate(t *testing.T) {
	database := db.NewMemDB()

	t.Run("empty database starts at genesis", func(t *testing.T) {
		next, missing, err := sync.NextMissingStateUpdate(database, 10)
		require.NoError(t, err)
		assert.True(t, missing)
		assert.Equal(t, uint64(0), next)
	})

	t.Run("empty database with head at genesis has nothing missing", func(t *testing.T) {
		_, missing, err := sync.NextMissingStateUpdate(database, 0)
		require.NoError(t, err)
		assert.False(t, missing)
	})

	update := &core.StateUpdate{StateDiff: &core.StateDiff{}}
	require.NoError(t, database.Update(func(txn db.Transaction) error {
		return blockchain.StoreStateUpdate(txn, 5, update)
	}))

	t.Run("resumes after the applied head", func(t *testing.T) {
		next, missing, err := sync.NextMissingStateUpdate(database, 10)
		require.NoError(t, err)
		assert.True(t, missing)
		assert.Equal(t, uint64(6), next)
	})

	t.Run("caught up", func(t *testing.T) {
		next, missing, err := sync.NextMissingStateUpdate(database, 5)
		require.NoError(t, err)
		assert.False(t, missing)
		assert.Equal(t, uint64(0), next)
	})
}
