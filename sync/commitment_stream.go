package sync

import (
	"context"
	"fmt"

	"github.com/NethermindEth/starkcheck/blockchain"
	"github.com/NethermindEth/starkcheck/db"
)

const commitmentBatchSize = 1000

// CommitmentStream yields the state diff metadata of blocks start through end
// inclusive, in order, reading stored headers in batches so the stream never
// holds a long-lived database transaction.
type CommitmentStream struct {
	database db.DB
	current  uint64
	end      uint64
	batch    []blockchain.StateDiffMeta
}

func NewCommitmentStream(database db.DB, start, end uint64) *CommitmentStream {
	return &CommitmentStream{
		database: database,
		current:  start,
		end:      end,
	}
}

// Next returns the metadata of the next block in the range, or (nil, nil)
// once the range is exhausted. A block without a stored header inside the
// range is a gap and ends the stream with ErrCommitmentGap.
func (s *CommitmentStream) Next(ctx context.Context) (*blockchain.StateDiffMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.batch) == 0 {
		if s.current > s.end {
			return nil, nil
		}
		if err := s.refill(); err != nil {
			return nil, err
		}
	}

	meta := s.batch[0]
	s.batch = s.batch[1:]
	s.current = meta.Number + 1
	return &meta, nil
}

func (s *CommitmentStream) refill() error {
	limit := uint(commitmentBatchSize)
	if remaining := s.end - s.current + 1; remaining < commitmentBatchSize {
		limit = uint(remaining)
	}

	err := s.database.View(func(txn db.Transaction) error {
		var err error
		s.batch, err = blockchain.StateDiffMetaRange(txn, s.current, limit)
		return err
	})
	if err != nil {
		return err
	}
	if len(s.batch) == 0 {
		return fmt.Errorf("%w: no header for block %d", ErrCommitmentGap, s.current)
	}
	return nil
}
