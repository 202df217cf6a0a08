package core

import (
	"github.com/NethermindEth/starkcheck/core/felt"
)

// Header is the per-block metadata persisted before state update processing
// begins.
type Header struct {
	// The hash of this block
	Hash *felt.Felt `cbor:"1,keyasint,omitempty"`
	// The hash of this block's parent
	ParentHash *felt.Felt `cbor:"2,keyasint,omitempty"`
	// The number (height) of this block
	Number uint64 `cbor:"3,keyasint,omitempty"`
	// The state commitment after this block
	GlobalStateRoot *felt.Felt `cbor:"4,keyasint,omitempty"`
	// The Starknet address of the sequencer who created this block
	SequencerAddress *felt.Felt `cbor:"5,keyasint,omitempty"`
	// The amount of transactions stored in this block
	TransactionCount uint64 `cbor:"6,keyasint,omitempty"`
	// The time the sequencer created this block before executing transactions
	Timestamp uint64 `cbor:"7,keyasint,omitempty"`
	// The version of the Starknet protocol used when creating this block
	ProtocolVersion string `cbor:"8,keyasint,omitempty"`
	// The commitment over this block's state diff
	StateDiffCommitment *felt.Felt `cbor:"9,keyasint,omitempty"`
	// The number of entries in this block's state diff
	StateDiffLength uint64 `cbor:"10,keyasint,omitempty"`
}
