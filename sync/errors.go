package sync

import "errors"

var (
	// ErrStateDiffCommitmentMismatch is returned when a state diff does not
	// hash to the commitment its block header carries.
	ErrStateDiffCommitmentMismatch = errors.New("state diff commitment mismatch")
	// ErrStateRootMismatch is returned when applying a verified state diff
	// yields a global state root different from the one the header carries.
	// The database is left untouched when this happens.
	ErrStateRootMismatch = errors.New("state root mismatch")
	// ErrCommitmentGap is returned when a block inside the requested range has
	// no stored header to take a state diff commitment from.
	ErrCommitmentGap = errors.New("gap in stored state diff commitments")
)
