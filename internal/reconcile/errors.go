package reconcile

import "errors"

var (
	// ErrSource marks a failure of the record source. The batch stops but
	// the partial summary is still returned.
	ErrSource = errors.New("record source failed")
	// ErrInterrupted marks a run stopped at a record boundary by cancellation.
	ErrInterrupted = errors.New("run interrupted")
)
