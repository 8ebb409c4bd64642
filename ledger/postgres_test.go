package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to the database named by TEST_DATABASE_URL and
// skips the test when the variable is unset.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.pool.Exec(ctx, `DELETE FROM transactions; DELETE FROM holdings; DELETE FROM accounts;`)
	require.NoError(t, err)

	return p
}

func TestPostgresRoundTrip(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	acct, err := p.CreateAccount(ctx, "pg@example.com", 100_000)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), acct.Cash)

	upd := OrderUpdate{
		Account: AccountUpdate{
			ID:              acct.ID,
			Cash:            acct.Cash - 10*5000,
			ExpectedVersion: acct.Version,
		},
		Holding: HoldingUpdate{
			AccountID:   acct.ID,
			Symbol:      "AAPL",
			DisplayName: "Apple Inc",
			Quantity:    10,
			AverageCost: 5000,
		},
		Transaction: Transaction{
			ID:        "01PGTEST",
			AccountID: acct.ID,
			Symbol:    "AAPL",
			Side:      Buy,
			Quantity:  10,
			Price:     5000,
			Timestamp: time.Now().UTC(),
		},
	}
	require.NoError(t, p.ApplyOrder(ctx, upd))

	got, err := p.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got.Cash)
	assert.Equal(t, int64(1), got.Version)

	h, err := p.GetHolding(ctx, acct.ID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(10), h.Quantity)

	txs, err := p.ListTransactions(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	// Stale version must not commit.
	upd.Transaction.ID = "01PGTEST2"
	err = p.ApplyOrder(ctx, upd)
	assert.ErrorIs(t, err, ErrConflict)
}
