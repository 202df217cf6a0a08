package sync

import "context"

// Stage is one step of the state update pipeline. Stages are chained by the
// Synchronizer, which feeds each stage's output to the next one in block
// order.
type Stage[In, Out any] interface {
	// Name identifies the stage in logs and error context.
	Name() string
	// Process handles a single item. A returned error aborts the pipeline.
	Process(ctx context.Context, in In) (Out, error)
}
