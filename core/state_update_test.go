package core_test

import (
	"testing"

	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleStateDiff(t *testing.T) *core.StateDiff {
	t.Helper()
	return &core.StateDiff{
		StorageDiffs: map[felt.Felt]map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x5790719f16afe1450b67a92461db7d0e36298d6a5f8bab4f7fd282050e02f4f"): {
				*utils.HexToFelt(t, "0x2"): utils.HexToFelt(t, "0x12"),
				*utils.HexToFelt(t, "0x3"): utils.HexToFelt(t, "0x13"),
			},
			*utils.HexToFelt(t, "0x2d6c9569dea5f18628f1ef7c15978ee3093d2d3eec3b893aac08004e678ead3"): {
				*utils.HexToFelt(t, "0x1"): utils.HexToFelt(t, "0x11"),
			},
		},
		SystemStorageDiffs: map[felt.Felt]map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x1"): {
				*utils.HexToFelt(t, "0xb"): utils.HexToFelt(t, "0xc"),
			},
		},
		Nonces: map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x5790719f16afe1450b67a92461db7d0e36298d6a5f8bab4f7fd282050e02f4f"): utils.HexToFelt(t, "0x5"),
		},
		DeployedContracts: map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x2d6c9569dea5f18628f1ef7c15978ee3093d2d3eec3b893aac08004e678ead3"): utils.HexToFelt(t, "0x10455c752b86932ce552f2b0fe81a880746649b9aee7e0d842bf3f52378f9f8"),
		},
		ReplacedClasses: map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x7e5d1616a159befa1b82d4a4d1b9dba5ef0c1a817ad2e94897ad4b7e6bcbdbb"): utils.HexToFelt(t, "0x70cb20b2c476cbad55a4f1f1e8480a9c3bdcf3d4bd5f9a2f4f4a68b1d04e0e2"),
		},
		DeclaredV0Classes: []*felt.Felt{
			utils.HexToFelt(t, "0x6d8ede036bb4720e6f348643221d8672bf4f0895622c32c11e57460b3b7dffc"),
		},
		DeclaredV1Classes: map[felt.Felt]*felt.Felt{
			*utils.HexToFelt(t, "0x1cb96b938da26c060d5fd807eef8b580c49490926393a5eeb408a89f84b9b46"): utils.HexToFelt(t, "0x6b54e2a0389da30cebf24f28bf7dbefc91d3d8c88fff867965c25ee2f8c2931"),
		},
	}
}

func TestStateDiffLength(t *testing.T) {
	diff := exampleStateDiff(t)
	// 3 storage entries, 1 system storage entry, 1 nonce, 1 deployed,
	// 1 replaced, 1 declared v0, 1 declared v1.
	assert.Equal(t, uint64(9), diff.Length())

	assert.Equal(t, uint64(0), new(core.StateDiff).Length())
}

func TestStateDiffCommitment(t *testing.T) {
	version, err := core.ParseBlockVersion("0.13.2")
	require.NoError(t, err)

	t.Run("deterministic across rebuilt maps", func(t *testing.T) {
		first := exampleStateDiff(t).Commitment(version)
		second := exampleStateDiff(t).Commitment(version)
		assert.Equal(t, first, second)
	})

	t.Run("sensitive to any entry change", func(t *testing.T) {
		base := exampleStateDiff(t).Commitment(version)

		changed := exampleStateDiff(t)
		for addr := range changed.Nonces {
			changed.Nonces[addr] = utils.HexToFelt(t, "0x6")
		}
		assert.NotEqual(t, base, changed.Commitment(version))
	})

	t.Run("sensitive to added entries", func(t *testing.T) {
		base := exampleStateDiff(t).Commitment(version)

		extended := exampleStateDiff(t)
		extended.DeclaredV0Classes = append(extended.DeclaredV0Classes,
			utils.HexToFelt(t, "0x1234"))
		assert.NotEqual(t, base, extended.Commitment(version))
	})

	t.Run("pre 0.13.2 blocks are digested without the version tag", func(t *testing.T) {
		older, err := core.ParseBlockVersion("0.13.1.1")
		require.NoError(t, err)

		assert.NotEqual(t,
			exampleStateDiff(t).Commitment(version),
			exampleStateDiff(t).Commitment(older))
	})

	t.Run("replaced classes count as updated contracts", func(t *testing.T) {
		// A contract that is both deployed and replaced in the same block is
		// digested once, with the replacing class hash winning.
		diff := exampleStateDiff(t)
		for addr, classHash := range diff.ReplacedClasses {
			diff.DeployedContracts[addr] = classHash
		}
		merged := diff.Commitment(version)

		assert.Equal(t, exampleStateDiff(t).Commitment(version), merged)
	})
}
