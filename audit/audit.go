// Package audit re-verifies the persisted chain state: every stored state
// diff is hashed back against the commitment its header carries, and the
// stored trie roots are recombined and checked against the header state root.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/starkcheck/blockchain"
	"github.com/NethermindEth/starkcheck/core"
	"github.com/NethermindEth/starkcheck/db"
	"github.com/NethermindEth/starkcheck/sync"
	"github.com/NethermindEth/starkcheck/utils"
)

type Config struct {
	Verbosity    utils.LogLevel `mapstructure:"verbosity"`
	DatabasePath string         `mapstructure:"db-path"`
	Network      utils.Network  `mapstructure:"network"`
	Colour       bool           `mapstructure:"colour"`
}

type Auditor struct {
	cfg      *Config
	database db.DB
	log      utils.Logger
}

func New(cfg *Config) (*Auditor, error) {
	log, err := utils.NewZapLogger(cfg.Verbosity, cfg.Colour)
	if err != nil {
		return nil, err
	}
	database, err := db.NewPebble(cfg.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("open database at %q: %w", cfg.DatabasePath, err)
	}
	return &Auditor{
		cfg:      cfg,
		database: database,
		log:      log,
	}, nil
}

func (a *Auditor) Close() error {
	return a.database.Close()
}

// Run audits every applied state update, stopping at the first inconsistency.
func (a *Auditor) Run(ctx context.Context) error {
	var highest uint64
	err := a.database.View(func(txn db.Transaction) error {
		var err error
		highest, err = blockchain.HighestStateUpdate(txn)
		return err
	})
	if errors.Is(err, db.ErrKeyNotFound) {
		a.log.Infow("No state updates to audit")
		return nil
	} else if err != nil {
		return err
	}
	a.log.Infow("Auditing state updates", "network", a.cfg.Network, "to", highest)

	commitments := sync.NewCommitmentStream(a.database, 0, highest)
	for {
		meta, err := commitments.Next(ctx)
		if err != nil {
			return err
		}
		if meta == nil {
			break
		}
		if err = a.auditBlock(meta); err != nil {
			return err
		}
	}

	a.log.Infow("Audit passed", "blocks", highest+1)
	return nil
}

func (a *Auditor) auditBlock(meta *blockchain.StateDiffMeta) error {
	return a.database.View(func(txn db.Transaction) error {
		update, err := blockchain.StateUpdateByNumber(txn, meta.Number)
		if err != nil {
			return fmt.Errorf("state update for block %d: %w", meta.Number, err)
		}

		if length := update.StateDiff.Length(); length != meta.Length {
			return fmt.Errorf("block %d: state diff length mismatch: header %d, stored %d",
				meta.Number, meta.Length, length)
		}

		version, err := core.ParseBlockVersion(meta.ProtocolVersion)
		if err != nil {
			return fmt.Errorf("parse protocol version of block %d: %w", meta.Number, err)
		}
		if commitment := update.StateDiff.Commitment(version); !commitment.Equal(&meta.Commitment) {
			return fmt.Errorf("block %d: %w: expected %s, computed %s",
				meta.Number, sync.ErrStateDiffCommitmentMismatch, &meta.Commitment, commitment)
		}

		storedRoot, err := blockchain.StateCommitmentByNumber(txn, meta.Number)
		if err != nil {
			return fmt.Errorf("trie roots for block %d: %w", meta.Number, err)
		}
		if !storedRoot.Equal(update.NewRoot) {
			return fmt.Errorf("block %d: %w: expected %s, computed %s",
				meta.Number, sync.ErrStateRootMismatch, update.NewRoot, storedRoot)
		}

		a.log.Debugw("Audited block", "number", meta.Number)
		return nil
	})
}
