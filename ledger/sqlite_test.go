package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func seedAccount(t *testing.T, s *SQLite, id string, cash int64) Account {
	t.Helper()

	acct, err := s.CreateAccount(context.Background(), id, cash)
	require.NoError(t, err)
	return acct
}

func buyUpdate(acct Account, symbol string, qty, price int64) OrderUpdate {
	return OrderUpdate{
		Account: AccountUpdate{
			ID:              acct.ID,
			Cash:            acct.Cash - qty*price,
			ExpectedVersion: acct.Version,
		},
		Holding: HoldingUpdate{
			AccountID:   acct.ID,
			Symbol:      symbol,
			DisplayName: symbol + " Inc",
			Quantity:    qty,
			AverageCost: price,
		},
		Transaction: Transaction{
			ID:        "01TEST" + symbol,
			AccountID: acct.ID,
			Symbol:    symbol,
			Side:      Buy,
			Quantity:  qty,
			Price:     price,
			Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	assert.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('accounts','holdings','transactions')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["accounts"])
	assert.True(t, found["holdings"])
	assert.True(t, found["transactions"])
}

func TestCreateAccountIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateAccount(ctx, "user@example.com", 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), first.Cash)
	assert.Equal(t, int64(10_000_000), first.Value)
	assert.Equal(t, int64(0), first.Version)

	// Spend some cash, then "log in" again. The second create must not
	// reset the account.
	require.NoError(t, s.ApplyOrder(ctx, buyUpdate(first, "AAPL", 10, 15000)))

	again, err := s.CreateAccount(ctx, "user@example.com", 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000-150000), again.Cash)
	assert.Equal(t, int64(1), again.Version)
}

func TestGetAccountNotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	_, err := s.GetAccount(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyOrderCommitsAllThree(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 100_000)

	require.NoError(t, s.ApplyOrder(ctx, buyUpdate(acct, "AAPL", 10, 5000)))

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got.Cash)
	assert.Equal(t, int64(1), got.Version)

	h, err := s.GetHolding(ctx, acct.ID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(10), h.Quantity)
	assert.Equal(t, int64(5000), h.AverageCost)
	assert.Equal(t, "AAPL Inc", h.DisplayName)

	txs, err := s.ListTransactions(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, Buy, txs[0].Side)
	assert.Equal(t, int64(5000), txs[0].Price)
}

func TestApplyOrderStaleVersionConflicts(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 100_000)

	upd := buyUpdate(acct, "AAPL", 10, 5000)
	upd.Account.ExpectedVersion = acct.Version + 1

	err := s.ApplyOrder(ctx, upd)
	assert.ErrorIs(t, err, ErrConflict)

	// Nothing may have landed.
	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), got.Cash)
	assert.Equal(t, int64(0), got.Version)

	_, err = s.GetHolding(ctx, acct.ID, "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)

	txs, err := s.ListTransactions(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestApplyOrderZeroQuantityDeletesHolding(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 100_000)

	require.NoError(t, s.ApplyOrder(ctx, buyUpdate(acct, "AAPL", 10, 5000)))

	acct, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)

	sellAll := OrderUpdate{
		Account: AccountUpdate{
			ID:              acct.ID,
			Cash:            acct.Cash + 10*6000,
			ExpectedVersion: acct.Version,
		},
		Holding: HoldingUpdate{
			AccountID: acct.ID,
			Symbol:    "AAPL",
			Quantity:  0,
		},
		Transaction: Transaction{
			ID:        "01TESTSELL",
			AccountID: acct.ID,
			Symbol:    "AAPL",
			Side:      Sell,
			Quantity:  10,
			Price:     6000,
			Timestamp: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, s.ApplyOrder(ctx, sellAll))

	_, err = s.GetHolding(ctx, acct.ID, "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110_000), got.Cash)
	assert.Equal(t, int64(2), got.Version)
}

func TestApplyOrderUpsertsExistingHolding(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 1_000_000)

	require.NoError(t, s.ApplyOrder(ctx, buyUpdate(acct, "AAPL", 10, 10000)))

	acct, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)

	// Second buy writes the recomputed absolute position.
	second := buyUpdate(acct, "AAPL", 5, 4000)
	second.Account.Cash = acct.Cash - 5*4000
	second.Holding.Quantity = 15
	second.Holding.AverageCost = 8000
	second.Transaction.ID = "01TESTAAPL2"
	require.NoError(t, s.ApplyOrder(ctx, second))

	h, err := s.GetHolding(ctx, acct.ID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(15), h.Quantity)
	assert.Equal(t, int64(8000), h.AverageCost)
}

func TestListHoldingsSymbolOrder(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 10_000_000)

	for _, sym := range []string{"MSFT", "AAPL", "GOOG"} {
		acct, _ = s.GetAccount(ctx, acct.ID)
		upd := buyUpdate(acct, sym, 1, 1000)
		upd.Transaction.ID = "01TEST" + sym
		require.NoError(t, s.ApplyOrder(ctx, upd))
	}

	holdings, err := s.ListHoldings(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 3)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, "GOOG", holdings[1].Symbol)
	assert.Equal(t, "MSFT", holdings[2].Symbol)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 10_000_000)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, sym := range []string{"AAPL", "MSFT", "GOOG"} {
		acct, _ = s.GetAccount(ctx, acct.ID)
		upd := buyUpdate(acct, sym, 1, 1000)
		upd.Transaction.ID = "01TEST" + sym
		upd.Transaction.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.ApplyOrder(ctx, upd))
	}

	txs, err := s.ListTransactions(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "GOOG", txs[0].Symbol)
	assert.Equal(t, "MSFT", txs[1].Symbol)
	assert.Equal(t, "AAPL", txs[2].Symbol)
	assert.True(t, txs[0].Timestamp.After(txs[2].Timestamp))
}

func TestSetAccountValue(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 100_000)

	require.NoError(t, s.SetAccountValue(ctx, acct.ID, 123_456))

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(123_456), got.Value)
	assert.Equal(t, int64(100_000), got.Cash)
	// Valuation write-back is not an order commit.
	assert.Equal(t, int64(0), got.Version)

	err = s.SetAccountValue(ctx, "nobody@example.com", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentApplyOrderOneWins(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	acct := seedAccount(t, s, "user@example.com", 100_000)

	// Both writers read version 0; only one commit may land.
	updA := buyUpdate(acct, "AAPL", 10, 6000)
	updB := buyUpdate(acct, "MSFT", 10, 6000)
	updB.Transaction.ID = "01TESTMSFT"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, upd := range []OrderUpdate{updA, updB} {
		wg.Add(1)
		go func(i int, upd OrderUpdate) {
			defer wg.Done()
			errs[i] = s.ApplyOrder(ctx, upd)
		}(i, upd)
	}
	wg.Wait()

	var conflicts, commits int
	for _, err := range errs {
		switch {
		case err == nil:
			commits++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, commits)
	assert.Equal(t, 1, conflicts)

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), got.Cash)
	assert.Equal(t, int64(1), got.Version)

	txs, err := s.ListTransactions(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
