package crypto

import "github.com/NethermindEth/starkcheck/core/felt"

// Digest is an ordered incremental hash accumulator. Feeding the same
// sequence of felts always yields the same finalised value.
type Digest interface {
	Update(...*felt.Felt) Digest
	Finish() *felt.Felt
}
