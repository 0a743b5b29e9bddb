package interfaces

import "context"

// TransactionManager runs fn inside a single atomic multi-document
// transaction. The context passed to fn carries the session; repositories
// called with it participate in the same transaction. Any error returned by
// fn aborts the transaction with no partial effect.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error)
}
