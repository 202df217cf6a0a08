package core_test

import (
	"testing"

	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/core/crypto"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/utils"
	"github.com/stretchr/testify/assert"
)

func TestStateCommitment(t *testing.T) {
	storageRoot := utils.HexToFelt(t, "0x21b8e5a20fa2a24e259a9c4d55c41b0c0e98c4d0e3a1cfe36e3d3c10ec62c27")
	classesRoot := utils.HexToFelt(t, "0x7cd4bb7adba4a3dbe3a6a47da18e9e8e17ede0a70a746d92ba1abbe0f230f32")

	t.Run("zero classes root passes the storage root through", func(t *testing.T) {
		commitment := core.StateCommitment(storageRoot, &felt.Zero)
		assert.Equal(t, storageRoot, commitment)
		// The caller's root must not be aliased.
		assert.NotSame(t, storageRoot, commitment)
	})

	t.Run("non zero classes root is combined", func(t *testing.T) {
		want := crypto.PedersenArray(
			new(felt.Felt).SetBytes([]byte("STARKNET_STATE_V0")),
			storageRoot,
			classesRoot,
		)
		assert.Equal(t, want, core.StateCommitment(storageRoot, classesRoot))
	})
}
