package ledger

import "context"

// AccountUpdate carries the cash mutation of one order commit.
// ExpectedVersion is the version the caller read before validating;
// ApplyOrder rejects the commit with ErrConflict when the stored row
// has moved past it.
type AccountUpdate struct {
	ID              string
	Cash            int64
	ExpectedVersion int64
}

// HoldingUpdate carries the position mutation of one order commit as
// absolute values. Quantity zero deletes the row.
type HoldingUpdate struct {
	AccountID   string
	Symbol      string
	DisplayName string
	Quantity    int64
	AverageCost int64
}

// OrderUpdate is the unit of atomic commit: the account's new cash,
// the affected holding, and the transaction record land together or
// not at all.
type OrderUpdate struct {
	Account     AccountUpdate
	Holding     HoldingUpdate
	Transaction Transaction
}

// Store is the durable ledger. Implementations must make ApplyOrder
// all-or-nothing and must report a stale ExpectedVersion as
// ErrConflict with no state change.
type Store interface {
	// GetAccount returns the account or ErrNotFound.
	GetAccount(ctx context.Context, id string) (Account, error)

	// CreateAccount inserts the account with the starting endowment
	// (value = cash) and returns it. Creating an existing account is a
	// no-op that returns the stored row unchanged.
	CreateAccount(ctx context.Context, id string, startingCash int64) (Account, error)

	// GetHolding returns the position in symbol or ErrNotFound.
	GetHolding(ctx context.Context, accountID, symbol string) (Holding, error)

	// ListHoldings returns the account's positions in symbol order.
	ListHoldings(ctx context.Context, accountID string) ([]Holding, error)

	// ListTransactions returns the account's full history, newest
	// first.
	ListTransactions(ctx context.Context, accountID string) ([]Transaction, error)

	// ApplyOrder commits one executed order atomically.
	ApplyOrder(ctx context.Context, upd OrderUpdate) error

	// SetAccountValue persists a recomputed account value. It does not
	// touch cash and does not participate in version checks.
	SetAccountValue(ctx context.Context, id string, value int64) error

	Close() error
}
