package reconcile

import "context"

// DryRunSink runs every write inside a transaction and then rolls it back,
// so the persist path is exercised without changing stored data.
type DryRunSink struct {
	Sink Sink
}

func (d DryRunSink) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.Sink.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return dryRunTx{tx: tx}, nil
}

type dryRunTx struct {
	tx Tx
}

func (t dryRunTx) SetIdentifier(ctx context.Context, recordID string, identifier int64) error {
	return t.tx.SetIdentifier(ctx, recordID, identifier)
}

func (t dryRunTx) Commit() error { return t.tx.Rollback() }

func (t dryRunTx) Rollback() error { return t.tx.Rollback() }
