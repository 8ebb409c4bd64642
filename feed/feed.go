// Package feed publishes committed transactions to downstream consumers.
package feed

import (
	"context"

	"github.com/rustyeddy/paperbroker/ledger"
)

// Publisher delivers committed transactions. Delivery is best-effort from
// the caller's point of view.
type Publisher interface {
	Publish(ctx context.Context, tx ledger.Transaction) error
	Close() error
}

// Nop discards everything. It stands in when no feed is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, tx ledger.Transaction) error { return nil }

func (Nop) Close() error { return nil }
