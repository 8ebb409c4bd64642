package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/internal/id"
	"github.com/rustyeddy/paperbroker/ledger"
	"github.com/rustyeddy/paperbroker/quotes"
)

// maxCommitAttempts bounds the optimistic commit loop: the initial attempt
// plus one retry after a version conflict.
const maxCommitAttempts = 2

// OrderRequest is a market order for a whole number of shares.
type OrderRequest struct {
	Symbol   string
	Side     ledger.Side
	Quantity int64
}

func (r OrderRequest) validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidOrder)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if r.Side != ledger.Buy && r.Side != ledger.Sell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, r.Side)
	}
	return nil
}

// ExecuteOrder runs an order to commit and returns the recorded transaction.
// The price is quoted once; a version conflict retries the commit against
// fresh account state at that same price.
func (e *Engine) ExecuteOrder(ctx context.Context, accountID string, req OrderRequest) (ledger.Transaction, error) {
	if err := req.validate(); err != nil {
		return ledger.Transaction{}, err
	}

	q, err := e.quotes.Quote(ctx, req.Symbol)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	price := quotes.Cents(q.Current)

	var tx ledger.Transaction
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		tx, err = e.tryOrder(ctx, accountID, req, price)
		if err == nil {
			e.afterCommit(ctx, tx)
			return tx, nil
		}
		if !errors.Is(err, ledger.ErrConflict) {
			return ledger.Transaction{}, err
		}
		e.log.Debug("order commit conflicted, retrying",
			zap.String("account", accountID),
			zap.String("symbol", req.Symbol),
			zap.Int("attempt", attempt),
		)
	}

	return ledger.Transaction{}, fmt.Errorf("%w: %s", ErrConflict, accountID)
}

// tryOrder makes a single commit attempt. It returns ledger.ErrConflict
// unwrapped so the caller can retry on it.
func (e *Engine) tryOrder(ctx context.Context, accountID string, req OrderRequest, price int64) (ledger.Transaction, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var upd ledger.OrderUpdate
	switch req.Side {
	case ledger.Buy:
		upd, err = e.buyUpdate(ctx, acct, req, price)
	case ledger.Sell:
		upd, err = e.sellUpdate(ctx, acct, req, price)
	}
	if err != nil {
		return ledger.Transaction{}, err
	}

	upd.Transaction = ledger.Transaction{
		ID:        id.New(),
		AccountID: acct.ID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		Price:     price,
		Timestamp: e.now().UTC(),
	}

	if err := e.store.ApplyOrder(ctx, upd); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return ledger.Transaction{}, err
		}
		return ledger.Transaction{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return upd.Transaction, nil
}

// buyUpdate debits cash and recomputes the position. A repeat buy moves the
// average cost to the quantity-weighted mean of the old position and the new
// lot, floored by integer division.
func (e *Engine) buyUpdate(ctx context.Context, acct ledger.Account, req OrderRequest, price int64) (ledger.OrderUpdate, error) {
	cost := price * req.Quantity
	if acct.Cash < cost {
		return ledger.OrderUpdate{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, cost, acct.Cash)
	}

	holding, err := e.store.GetHolding(ctx, acct.ID, req.Symbol)
	switch {
	case err == nil:
		newQty := holding.Quantity + req.Quantity
		holding.AverageCost = (holding.AverageCost*holding.Quantity + price*req.Quantity) / newQty
		holding.Quantity = newQty
	case errors.Is(err, ledger.ErrNotFound):
		profile, perr := e.quotes.Profile(ctx, req.Symbol)
		if perr != nil {
			return ledger.OrderUpdate{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, perr)
		}
		name := profile.Name
		if name == "" {
			name = req.Symbol
		}
		holding = ledger.Holding{
			AccountID:   acct.ID,
			Symbol:      req.Symbol,
			DisplayName: name,
			Quantity:    req.Quantity,
			AverageCost: price,
		}
	default:
		return ledger.OrderUpdate{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return ledger.OrderUpdate{
		Account: ledger.AccountUpdate{
			ID:              acct.ID,
			Cash:            acct.Cash - cost,
			ExpectedVersion: acct.Version,
		},
		Holding: ledger.HoldingUpdate{
			AccountID:   acct.ID,
			Symbol:      req.Symbol,
			DisplayName: holding.DisplayName,
			Quantity:    holding.Quantity,
			AverageCost: holding.AverageCost,
		},
	}, nil
}

// sellUpdate credits cash and shrinks the position. The average cost never
// moves on a sell; selling the last share deletes the holding.
func (e *Engine) sellUpdate(ctx context.Context, acct ledger.Account, req OrderRequest, price int64) (ledger.OrderUpdate, error) {
	holding, err := e.store.GetHolding(ctx, acct.ID, req.Symbol)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.OrderUpdate{}, fmt.Errorf("%w: no position in %s", ErrInsufficientShares, req.Symbol)
	}
	if err != nil {
		return ledger.OrderUpdate{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if holding.Quantity < req.Quantity {
		return ledger.OrderUpdate{}, fmt.Errorf("%w: have %d, selling %d", ErrInsufficientShares, holding.Quantity, req.Quantity)
	}

	return ledger.OrderUpdate{
		Account: ledger.AccountUpdate{
			ID:              acct.ID,
			Cash:            acct.Cash + price*req.Quantity,
			ExpectedVersion: acct.Version,
		},
		Holding: ledger.HoldingUpdate{
			AccountID:   acct.ID,
			Symbol:      req.Symbol,
			DisplayName: holding.DisplayName,
			Quantity:    holding.Quantity - req.Quantity,
			AverageCost: holding.AverageCost,
		},
	}, nil
}

func (e *Engine) afterCommit(ctx context.Context, tx ledger.Transaction) {
	e.log.Info("order committed",
		zap.String("id", tx.ID),
		zap.String("account", tx.AccountID),
		zap.String("symbol", tx.Symbol),
		zap.String("side", string(tx.Side)),
		zap.Int64("quantity", tx.Quantity),
		zap.Int64("price", tx.Price),
	)

	if e.feed == nil {
		return
	}
	if err := e.feed.Publish(ctx, tx); err != nil {
		e.log.Warn("feed publish failed", zap.String("id", tx.ID), zap.Error(err))
	}
}
