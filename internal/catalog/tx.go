package catalog

import "context"

// WithTx runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Delete
// hooks for rows removed inside fn fire only after the commit succeeds.
// Calling WithTx on a transaction-bound Store reuses the open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	ctx = ensureContext(ctx)
	if s.inTx() {
		return fn(s)
	}

	var pending []int64
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	txStore := &Store{db: s.db, q: tx, path: s.path, hooks: s.hooks, pending: &pending}

	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	s.notifyDeleted(ctx, pending...)
	return nil
}
