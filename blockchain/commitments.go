package blockchain

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/db"
)

// StateDiffMeta is the per-block state diff metadata carried on the header.
type StateDiffMeta struct {
	Number          uint64
	Length          uint64
	Commitment      felt.Felt
	ProtocolVersion string
}

// StateDiffMetaRange reads up to limit state diff metadata entries for the
// contiguous run of stored headers starting at block start. The run ends at
// the first block without a stored header; missing commitment metadata on a
// stored header is an error.
func StateDiffMetaRange(txn db.Transaction, start uint64, limit uint) ([]StateDiffMeta, error) {
	metas := make([]StateDiffMeta, 0, limit)
	for number := start; number < start+uint64(limit); number++ {
		header, err := BlockHeaderByNumber(txn, number)
		if errors.Is(err, db.ErrKeyNotFound) {
			break
		} else if err != nil {
			return nil, err
		}
		if header.StateDiffCommitment == nil {
			return nil, fmt.Errorf("header for block %d has no state diff commitment", number)
		}
		metas = append(metas, StateDiffMeta{
			Number:          number,
			Length:          header.StateDiffLength,
			Commitment:      *header.StateDiffCommitment,
			ProtocolVersion: header.ProtocolVersion,
		})
	}
	return metas, nil
}
