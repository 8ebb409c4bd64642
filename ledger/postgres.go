package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema is the Schema rendered for PostgreSQL deployments.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	cash BIGINT NOT NULL,
	value BIGINT NOT NULL,
	version BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS holdings (
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	display_name TEXT NOT NULL,
	quantity BIGINT NOT NULL,
	average_cost BIGINT NOT NULL,
	PRIMARY KEY (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity BIGINT NOT NULL,
	price BIGINT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_time
	ON transactions(account_id, timestamp DESC);
`

// Postgres is the Store for shared deployments where several service
// instances write the same ledger. The row lock taken by the version
// UPDATE serializes same-account writers across instances.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account
	err := p.pool.QueryRow(ctx, `
		SELECT id, cash, value, version
		FROM accounts
		WHERE id = $1`, id).Scan(&a.ID, &a.Cash, &a.Value, &a.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("account %q: %w", id, ErrNotFound)
		}
		return Account{}, err
	}
	return a, nil
}

func (p *Postgres) CreateAccount(ctx context.Context, id string, startingCash int64) (Account, error) {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO accounts (id, cash, value, version)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (id) DO NOTHING`,
		id, startingCash, startingCash,
	)
	if err != nil {
		return Account{}, err
	}
	return p.GetAccount(ctx, id)
}

func (p *Postgres) GetHolding(ctx context.Context, accountID, symbol string) (Holding, error) {
	var h Holding
	err := p.pool.QueryRow(ctx, `
		SELECT account_id, symbol, display_name, quantity, average_cost
		FROM holdings
		WHERE account_id = $1 AND symbol = $2`, accountID, symbol).
		Scan(&h.AccountID, &h.Symbol, &h.DisplayName, &h.Quantity, &h.AverageCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Holding{}, fmt.Errorf("holding %s/%s: %w", accountID, symbol, ErrNotFound)
		}
		return Holding{}, err
	}
	return h, nil
}

func (p *Postgres) ListHoldings(ctx context.Context, accountID string) ([]Holding, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT account_id, symbol, display_name, quantity, average_cost
		FROM holdings
		WHERE account_id = $1
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
	return out, rows.Err()
}

func (p *Postgres) ListTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, account_id, symbol, side, quantity, price, timestamp
		FROM transactions
		WHERE account_id = $1
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
	return out, rows.Err()
}

func (p *Postgres) ApplyOrder(ctx context.Context, upd OrderUpdate) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE accounts SET cash = $1, version = version + 1
		WHERE id = $2 AND version = $3`,
		upd.Account.Cash, upd.Account.ID, upd.Account.ExpectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	h := upd.Holding
	if h.Quantity == 0 {
		_, err = tx.Exec(ctx, `
			DELETE FROM holdings WHERE account_id = $1 AND symbol = $2`,
			h.AccountID, h.Symbol,
		)
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO holdings (account_id, symbol, display_name, quantity, average_cost)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, symbol) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				average_cost = EXCLUDED.average_cost`,
			h.AccountID, h.Symbol, h.DisplayName, h.Quantity, h.AverageCost,
		)
	}
	if err != nil {
		return err
	}

	t := upd.Transaction
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, account_id, symbol, side, quantity, price, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.AccountID, t.Symbol, string(t.Side), t.Quantity, t.Price, t.Timestamp,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (p *Postgres) SetAccountValue(ctx context.Context, id string, value int64) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE accounts SET value = $1 WHERE id = $2`, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %q: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
