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

func TestSynchronizer(t *testing.T) {
	log := utils.NewNopLogger()
	ctx := context.Background()
	storageRoot := utils.HexToFelt(t, "0x21b8e5a20fa2a24e259a9c4d55c41b0c0e98c4d0e3a1cfe36e3d3c10ec62c27")

	version, err := core.ParseBlockVersion("0.13.2")
	require.NoError(t, err)

	newChain := func(t *testing.T, diff *core.StateDiff, head uint64) db.DB {
		t.Helper()
		database := db.NewMemDB()
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			for number := uint64(0); number <= head; number++ {
				header := &core.Header{
					Hash:                utils.HexToFelt(t, "0xbeef"),
					Number:              number,
					GlobalStateRoot:     storageRoot,
					ProtocolVersion:     "0.13.2",
					StateDiffCommitment: diff.Commitment(version),
					StateDiffLength:     diff.Length(),
				}
				if err := blockchain.StoreBlockHeader(txn, header); err != nil {
					return err
				}
			}
			return nil
		}))
		return database
	}

	t.Run("syncs from genesis to head", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		diff := testStateDiff(t)
		database := newChain(t, diff, 2)

		source := mocks.NewMockDiffSource(ctrl)
		updater := mocks.NewMockStateUpdater(ctrl)
		for number := uint64(0); number <= 2; number++ {
			source.EXPECT().StateDiff(gomock.Any(), number, diff.Length()).Return(diff, nil)
			updater.EXPECT().
				ApplyStateDiff(gomock.Any(), number, diff, false).
				Return(storageRoot, &felt.Zero, nil)
		}

		synchronizer := sync.NewSynchronizer(database, source, updater, false, log)
		require.NoError(t, synchronizer.Run(ctx, 2))

		highest, err := blockchain.New(database, utils.Mainnet).HighestStateUpdate()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), highest)
	})

	t.Run("resumes from the applied head", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		diff := testStateDiff(t)
		database := newChain(t, diff, 2)

		require.NoError(t, database.Update(func(txn db.Transaction) error {
			if err := blockchain.StoreTrieRoots(txn, 1, storageRoot, &felt.Zero); err != nil {
				return err
			}
			return blockchain.StoreStateUpdate(txn, 1, &core.StateUpdate{StateDiff: diff})
		}))

		source := mocks.NewMockDiffSource(ctrl)
		updater := mocks.NewMockStateUpdater(ctrl)
		source.EXPECT().StateDiff(gomock.Any(), uint64(2), diff.Length()).Return(diff, nil)
		updater.EXPECT().
			ApplyStateDiff(gomock.Any(), uint64(2), diff, false).
			Return(storageRoot, &felt.Zero, nil)

		synchronizer := sync.NewSynchronizer(database, source, updater, false, log)
		require.NoError(t, synchronizer.Run(ctx, 2))
	})

	t.Run("up to date does nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		diff := testStateDiff(t)
		database := newChain(t, diff, 0)
		require.NoError(t, database.Update(func(txn db.Transaction) error {
			return blockchain.StoreStateUpdate(txn, 0, &core.StateUpdate{StateDiff: diff})
		}))

		synchronizer := sync.NewSynchronizer(database,
			mocks.NewMockDiffSource(ctrl), mocks.NewMockStateUpdater(ctrl), false, log)
		require.NoError(t, synchronizer.Run(ctx, 0))
	})

	t.Run("stops on a corrupted diff", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		diff := testStateDiff(t)
		database := newChain(t, diff, 2)

		corrupted := testStateDiff(t)
		for addr := range corrupted.Nonces {
			corrupted.Nonces[addr] = utils.HexToFelt(t, "0x999")
		}

		source := mocks.NewMockDiffSource(ctrl)
		source.EXPECT().StateDiff(gomock.Any(), gomock.Any(), gomock.Any()).Return(corrupted, nil).AnyTimes()

		synchronizer := sync.NewSynchronizer(database, source, mocks.NewMockStateUpdater(ctrl), false, log)
		err := synchronizer.Run(ctx, 2)
		require.ErrorIs(t, err, sync.ErrStateDiffCommitmentMismatch)

		_, err = blockchain.New(database, utils.Mainnet).HighestStateUpdate()
		assert.ErrorIs(t, err, db.ErrKeyNotFound)
	})
}
