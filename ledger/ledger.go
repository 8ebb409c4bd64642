// Package ledger is the durable record of accounts, holdings, and
// executed orders. All monetary amounts are integer cents.
package ledger

import "time"

// Side identifies the direction of an executed order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Account is a user's cash account. ID is the verified identity key
// (the user's email). Version counts committed orders and backs the
// optimistic concurrency check in ApplyOrder; it is a storage concern
// and stays out of API responses.
type Account struct {
	ID      string `json:"id"`
	Cash    int64  `json:"cash"`
	Value   int64  `json:"value"`
	Version int64  `json:"-"`
}

// Holding is an open position in a single symbol, keyed by
// (AccountID, Symbol). AverageCost is the weighted average purchase
// price in cents per share; sells never change it. A holding whose
// quantity reaches zero is deleted rather than kept at zero.
type Holding struct {
	AccountID   string `json:"-"`
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name"`
	Quantity    int64  `json:"quantity"`
	AverageCost int64  `json:"average_cost"`
}

// Transaction is one executed order. The transaction log is
// append-only; ledger state is re-derivable from it.
type Transaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  int64     `json:"quantity"`
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
