package core

import (
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/starkcheck/core/crypto"
	"github.com/NethermindEth/starkcheck/core/felt"
)

// StateUpdate ties a block's state diff to its header linkage: the parent's
// state commitment and the commitment declared for this block.
type StateUpdate struct {
	BlockHash *felt.Felt `cbor:"1,keyasint,omitempty"`
	// The state commitment after this block
	NewRoot *felt.Felt `cbor:"2,keyasint,omitempty"`
	// The state commitment before this block
	OldRoot   *felt.Felt `cbor:"3,keyasint,omitempty"`
	StateDiff *StateDiff `cbor:"4,keyasint,omitempty"`
}

// StateDiff is the set of contract storage, system contract and class
// declaration changes introduced by one block. Map semantics only, no
// implied ordering.
type StateDiff struct {
	// Per contract storage updates: address -> storage key -> value
	StorageDiffs map[felt.Felt]map[felt.Felt]*felt.Felt `cbor:"1,keyasint,omitempty"`
	// Storage updates of system contracts (0x1, ...)
	SystemStorageDiffs map[felt.Felt]map[felt.Felt]*felt.Felt `cbor:"2,keyasint,omitempty"`
	// Updated contract nonces: address -> nonce
	Nonces map[felt.Felt]*felt.Felt `cbor:"3,keyasint,omitempty"`
	// Newly deployed contracts: address -> class hash
	DeployedContracts map[felt.Felt]*felt.Felt `cbor:"4,keyasint,omitempty"`
	// Contracts whose class was replaced: address -> class hash
	ReplacedClasses map[felt.Felt]*felt.Felt `cbor:"5,keyasint,omitempty"`
	// Declared Cairo 0 class hashes
	DeclaredV0Classes []*felt.Felt `cbor:"6,keyasint,omitempty"`
	// Declared Sierra classes: class hash -> compiled class hash
	DeclaredV1Classes map[felt.Felt]*felt.Felt `cbor:"7,keyasint,omitempty"`
}

// Length returns the number of entries in the state diff.
func (d *StateDiff) Length() uint64 {
	var length uint64
	for _, diff := range d.StorageDiffs {
		length += uint64(len(diff))
	}
	for _, diff := range d.SystemStorageDiffs {
		length += uint64(len(diff))
	}
	length += uint64(len(d.Nonces))
	length += uint64(len(d.DeployedContracts))
	length += uint64(len(d.ReplacedClasses))
	length += uint64(len(d.DeclaredV0Classes))
	length += uint64(len(d.DeclaredV1Classes))
	return length
}

var stateDiffVersion0 = new(felt.Felt).SetBytes([]byte("STARKNET_STATE_DIFF0"))

// Commitment derives the state diff commitment for the given protocol
// version. Two diffs with the same commitment are semantically equal under
// this derivation. Blocks before 0.13.2 predate the canonical commitment and
// are digested without the version tag.
func (d *StateDiff) Commitment(blockVersion *semver.Version) *felt.Felt {
	digest := new(crypto.PedersenDigest)

	if !blockVersion.LessThan(Ver0_13_2) {
		digest.Update(stateDiffVersion0)
	}

	// updated_contracts = deployed_contracts + replaced_classes
	// [number_of_updated_contracts, address_0, class_hash_0, address_1, ...]
	updatedContractsDigest(d.DeployedContracts, d.ReplacedClasses, digest)

	// [number_of_declared_classes, class_hash_0, compiled_class_hash_0, ...]
	declaredV1ClassesDigest(d.DeclaredV1Classes, digest)

	// [number_of_old_declared_classes, class_hash_0, class_hash_1, ...]
	declaredV0ClassesDigest(d.DeclaredV0Classes, digest)

	// single data availability revision, on L1
	digest.Update(feltOne, &felt.Zero)

	// [number_of_updated_contracts, address_0, number_of_updates_in_contract,
	//  key_0, value_0, key_1, value_1, ...]
	storageDiffsDigest(d.StorageDiffs, d.SystemStorageDiffs, digest)

	// [number_of_updated_contracts, address_0, nonce_0, address_1, ...]
	noncesDigest(d.Nonces, digest)

	return digest.Finish()
}

func updatedContractsDigest(deployed, replaced map[felt.Felt]*felt.Felt, digest crypto.Digest) {
	updated := make(map[felt.Felt]*felt.Felt, len(deployed)+len(replaced))
	for addr, classHash := range deployed {
		updated[addr] = classHash
	}
	for addr, classHash := range replaced {
		updated[addr] = classHash
	}

	digest.Update(new(felt.Felt).SetUint64(uint64(len(updated))))
	for _, addr := range sortedFeltKeys(updated) {
		digest.Update(&addr, updated[addr])
	}
}

func declaredV1ClassesDigest(declared map[felt.Felt]*felt.Felt, digest crypto.Digest) {
	digest.Update(new(felt.Felt).SetUint64(uint64(len(declared))))
	for _, classHash := range sortedFeltKeys(declared) {
		digest.Update(&classHash, declared[classHash])
	}
}

func declaredV0ClassesDigest(declared []*felt.Felt, digest crypto.Digest) {
	digest.Update(new(felt.Felt).SetUint64(uint64(len(declared))))

	sorted := make([]*felt.Felt, len(declared))
	copy(sorted, declared)
	slices.SortFunc(sorted, func(a, b *felt.Felt) int { return a.Cmp(b) })
	digest.Update(sorted...)
}

func storageDiffsDigest(diffs, systemDiffs map[felt.Felt]map[felt.Felt]*felt.Felt, digest crypto.Digest) {
	merged := make(map[felt.Felt]map[felt.Felt]*felt.Felt, len(diffs)+len(systemDiffs))
	for addr, diff := range diffs {
		merged[addr] = diff
	}
	for addr, diff := range systemDiffs {
		merged[addr] = diff
	}

	digest.Update(new(felt.Felt).SetUint64(uint64(len(merged))))
	for _, addr := range sortedFeltKeys(merged) {
		diff := merged[addr]
		digest.Update(&addr, new(felt.Felt).SetUint64(uint64(len(diff))))
		for _, key := range sortedFeltKeys(diff) {
			digest.Update(&key, diff[key])
		}
	}
}

func noncesDigest(nonces map[felt.Felt]*felt.Felt, digest crypto.Digest) {
	digest.Update(new(felt.Felt).SetUint64(uint64(len(nonces))))
	for _, addr := range sortedFeltKeys(nonces) {
		digest.Update(&addr, nonces[addr])
	}
}

func sortedFeltKeys[V any](m map[felt.Felt]V) []felt.Felt {
	keys := make([]felt.Felt, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b felt.Felt) int { return a.Cmp(&b) })
	return keys
}
