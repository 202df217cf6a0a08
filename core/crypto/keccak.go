package crypto

import (
	"github.com/NethermindEth/starkcheck/core/felt"
	"golang.org/x/crypto/sha3"
)

// StarknetKeccak implements [Starknet keccak]: Keccak256 truncated to 250
// bits so that the digest fits in a field element.
//
// [Starknet keccak]: https://docs.starknet.io/documentation/architecture_and_concepts/Hashing/hash-functions/#starknet_keccak
func StarknetKeccak(b []byte) (*felt.Felt, error) {
	h := sha3.NewLegacyKeccak256()
	if _, err := h.Write(b); err != nil {
		return nil, err
	}
	d := h.Sum(nil)
	// Remove the first 6 bits from the first byte
	d[0] &= 3
	return new(felt.Felt).SetBytes(d), nil
}
