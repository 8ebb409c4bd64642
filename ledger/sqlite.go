package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the embedded default Store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and applies
// the schema. Transactions take the write lock up front (_txlock) so
// concurrent ApplyOrder calls serialize instead of deadlocking; the
// busy timeout bounds how long a writer waits for its turn.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_txlock=immediate", path))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAccount(ctx context.Context, id string, startingCash int64) (Account, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO accounts (id, cash, value, version)
		VALUES (?, ?, ?, 0)`,
		id, startingCash, startingCash,
	)
	if err != nil {
		return Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *SQLite) ApplyOrder(ctx context.Context, upd OrderUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET cash = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		upd.Account.Cash, upd.Account.ID, upd.Account.ExpectedVersion,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	h := upd.Holding
	if h.Quantity == 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM holdings WHERE account_id = ? AND symbol = ?`,
			h.AccountID, h.Symbol,
		)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO holdings (account_id, symbol, display_name, quantity, average_cost)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(account_id, symbol) DO UPDATE SET
				quantity = excluded.quantity,
				average_cost = excluded.average_cost`,
			h.AccountID, h.Symbol, h.DisplayName, h.Quantity, h.AverageCost,
		)
	}
	if err != nil {
		return err
	}

	t := upd.Transaction
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, symbol, side, quantity, price, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Symbol, string(t.Side), t.Quantity, t.Price, t.Timestamp,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *SQLite) SetAccountValue(ctx context.Context, id string, value int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
