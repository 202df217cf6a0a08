package sync

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	stdsync "sync"

	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/db"
	"github.com/NethermindEth/starkcheck/utils"
	"github.com/sourcegraph/conc/stream"
)

//go:generate mockgen -destination=../mocks/mock_diff_source.go -package=mocks github.com/NethermindEth/starkcheck/sync DiffSource

// DiffSource fetches the state diff of a block from the network. diffLength
// is the length the block header promises and lets implementations validate
// the response size before returning it.
type DiffSource interface {
	StateDiff(ctx context.Context, blockNumber, diffLength uint64) (*core.StateDiff, error)
}

// Synchronizer drives state updates from the first missing block up to the
// chain head. Diffs are fetched concurrently but verified and applied
// strictly in block order.
type Synchronizer struct {
	database         db.DB
	source           DiffSource
	updater          core.StateUpdater
	verifyTrieHashes bool
	log              utils.SimpleLogger
}

func NewSynchronizer(database db.DB, source DiffSource, updater core.StateUpdater,
	verifyTrieHashes bool, log utils.SimpleLogger,
) *Synchronizer {
	return &Synchronizer{
		database:         database,
		source:           source,
		updater:          updater,
		verifyTrieHashes: verifyTrieHashes,
		log:              log,
	}
}

func maxWorkers() int {
	m, mProcs := 16, runtime.GOMAXPROCS(0)
	if mProcs > m {
		return m
	}
	return mProcs
}

// Run applies every missing state update up to head. It stops at the first
// verification or persistence failure, leaving state at the last applied
// block.
func (s *Synchronizer) Run(ctx context.Context, head uint64) error {
	next, missing, err := NextMissingStateUpdate(s.database, head)
	if err != nil {
		return err
	}
	if !missing {
		s.log.Infow("State is up to date", "head", head)
		return nil
	}
	s.log.Infow("Starting state sync", "from", next, "to", head)

	verify := NewVerifyDiff(s.log)
	update := NewUpdateState(s.database, s.updater, next, s.verifyTrieHashes, s.log)
	commitments := NewCommitmentStream(s.database, next, head)

	streamCtx, streamCancel := context.WithCancel(ctx)
	defer streamCancel()

	var (
		failOnce stdsync.Once
		runErr   error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			runErr = err
			streamCancel()
		})
	}

	fetchers := stream.New().WithMaxGoroutines(maxWorkers())
	for {
		meta, err := commitments.Next(streamCtx)
		if err != nil {
			fail(err)
			break
		}
		if meta == nil {
			break
		}

		fetchers.Go(func() stream.Callback {
			diff, err := s.source.StateDiff(streamCtx, meta.Number, meta.Length)
			return func() {
				if streamCtx.Err() != nil {
					return
				}
				if err != nil {
					fail(fmt.Errorf("fetch state diff of block %d: %w", meta.Number, err))
					return
				}
				verified, err := verify.Process(streamCtx, &UnverifiedDiff{
					Number:             meta.Number,
					ProtocolVersion:    meta.ProtocolVersion,
					ExpectedCommitment: &meta.Commitment,
					Diff:               diff,
				})
				if err != nil {
					fail(err)
					return
				}
				if _, err = update.Process(streamCtx, verified); err != nil {
					fail(err)
				}
			}
		})
	}
	fetchers.Wait()

	if runErr == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return runErr
}

// RunToHighestHeader syncs up to the highest stored block header.
func (s *Synchronizer) RunToHighestHeader(ctx context.Context) error {
	head, err := highestStoredHeader(s.database)
	if err != nil {
		return err
	}
	return s.Run(ctx, head)
}

// highestStoredHeader walks the header bucket for the highest block number
// with a stored header. db.ErrKeyNotFound is returned on an empty bucket.
func highestStoredHeader(database db.DB) (uint64, error) {
	var (
		head  uint64
		found bool
	)
	err := database.View(func(txn db.Transaction) error {
		it, err := txn.NewIterator()
		if err != nil {
			return err
		}
		prefix := db.BlockHeadersByNumber.Key()
		for ok := it.Seek(prefix); ok; ok = it.Next() {
			key := it.Key()
			if len(key) != len(prefix)+8 || key[0] != prefix[0] {
				break
			}
			head = binary.BigEndian.Uint64(key[len(prefix):])
			found = true
		}
		return it.Close()
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, db.ErrKeyNotFound
	}
	return head, nil
}
