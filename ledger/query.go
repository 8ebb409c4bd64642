package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetAccount returns a single account by ID.
func (s *SQLite) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account

	row := s.db.QueryRowContext(ctx, `
		SELECT id, cash, value, version
		FROM accounts
		WHERE id = ?`, id)

	err := row.Scan(&a.ID, &a.Cash, &a.Value, &a.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, fmt.Errorf("account %q: %w", id, ErrNotFound)
		}
		return Account{}, err
	}
	return a, nil
}

// GetHolding returns the account's position in one symbol.
func (s *SQLite) GetHolding(ctx context.Context, accountID, symbol string) (Holding, error) {
	var h Holding

	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, symbol, display_name, quantity, average_cost
		FROM holdings
		WHERE account_id = ? AND symbol = ?`, accountID, symbol)

	err := row.Scan(&h.AccountID, &h.Symbol, &h.DisplayName, &h.Quantity, &h.AverageCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Holding{}, fmt.Errorf("holding %s/%s: %w", accountID, symbol, ErrNotFound)
		}
		return Holding{}, err
	}
	return h, nil
}

// ListHoldings returns the account's positions in symbol order.
func (s *SQLite) ListHoldings(ctx context.Context, accountID string) ([]Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, symbol, display_name, quantity, average_cost
		FROM holdings
		WHERE account_id = ?
		ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.AccountID, &h.Symbol, &h.DisplayName, &h.Quantity, &h.AverageCost); err != nil {
			return nil, err
		}
		out = append(out, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions returns the account's history, newest first. Ties on
// timestamp fall back to ID order; IDs are time-sortable.
func (s *SQLite) ListTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, symbol, side, quantity, price, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY timestamp DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var side string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Side = Side(side)
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
