package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/paperbroker/ledger"
	"github.com/rustyeddy/paperbroker/quotes"
)

// HoldingView is a position priced at the current quote. Monetary fields
// are integer cents.
type HoldingView struct {
	Symbol           string `json:"symbol"`
	DisplayName      string `json:"display_name"`
	Quantity         int64  `json:"quantity"`
	AverageCost      int64  `json:"average_cost"`
	CurrentPrice     int64  `json:"current_price"`
	TotalValue       int64  `json:"total_value"`
	UnrealizedChange int64  `json:"unrealized_change"`
	DayChange        int64  `json:"day_change"`
	DayChangePercent int64  `json:"day_change_percent"`
}

// Portfolio is an account's cash plus its priced positions. Value is the
// persisted account worth, cash plus market value.
type Portfolio struct {
	AccountID  string        `json:"account_id"`
	Cash       int64         `json:"cash"`
	TotalValue int64         `json:"total_value"`
	Value      int64         `json:"value"`
	Holdings   []HoldingView `json:"holdings"`
}

// AccountSummary is the account header: cash, last persisted worth, and
// today's move across all positions in cents.
type AccountSummary struct {
	ID     string `json:"id"`
	Cash   int64  `json:"cash"`
	Value  int64  `json:"value"`
	Change int64  `json:"change"`
}

// Portfolio prices every holding at a fresh quote and persists the account's
// worth. Any quote failure aborts the valuation; a partially priced
// portfolio is never returned or written back.
func (e *Engine) Portfolio(ctx context.Context, accountID string) (Portfolio, error) {
	acct, holdings, err := e.loadAccount(ctx, accountID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{
		AccountID: acct.ID,
		Cash:      acct.Cash,
		Holdings:  make([]HoldingView, 0, len(holdings)),
	}

	for _, h := range holdings {
		q, err := e.quotes.Quote(ctx, h.Symbol)
		if err != nil {
			return Portfolio{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
		}

		price := quotes.Cents(q.Current)
		value := price * h.Quantity
		p.Holdings = append(p.Holdings, HoldingView{
			Symbol:           h.Symbol,
			DisplayName:      h.DisplayName,
			Quantity:         h.Quantity,
			AverageCost:      h.AverageCost,
			CurrentPrice:     price,
			TotalValue:       value,
			UnrealizedChange: value - h.AverageCost*h.Quantity,
			DayChange:        quotes.Cents(q.Change) * h.Quantity,
			DayChangePercent: quotes.Cents(q.ChangePercent),
		})
		p.TotalValue += value
	}

	p.Value = p.Cash + p.TotalValue
	if err := e.store.SetAccountValue(ctx, acct.ID, p.Value); err != nil {
		return Portfolio{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return p, nil
}

// Account returns the account header with today's change summed over all
// positions.
func (e *Engine) Account(ctx context.Context, accountID string) (AccountSummary, error) {
	acct, holdings, err := e.loadAccount(ctx, accountID)
	if err != nil {
		return AccountSummary{}, err
	}

	var change int64
	for _, h := range holdings {
		q, err := e.quotes.Quote(ctx, h.Symbol)
		if err != nil {
			return AccountSummary{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
		}
		change += (quotes.Cents(q.Current) - quotes.Cents(q.PrevClose)) * h.Quantity
	}

	return AccountSummary{
		ID:     acct.ID,
		Cash:   acct.Cash,
		Value:  acct.Value,
		Change: change,
	}, nil
}

func (e *Engine) loadAccount(ctx context.Context, accountID string) (ledger.Account, []ledger.Holding, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Account{}, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return ledger.Account{}, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	holdings, err := e.store.ListHoldings(ctx, accountID)
	if err != nil {
		return ledger.Account{}, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return acct, holdings, nil
}
