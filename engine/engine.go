// Package engine executes orders and values portfolios. Every order runs
// quote, load, validate, compute, commit. The commit is optimistic: the
// account's version is checked at write time, and a concurrent writer costs
// the loser one retry at the same quoted price.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/ledger"
	"github.com/rustyeddy/paperbroker/quotes"
)

// TradeFeed receives committed transactions. Publishing is best-effort:
// a feed failure never rolls back a commit.
type TradeFeed interface {
	Publish(ctx context.Context, tx ledger.Transaction) error
}

// Engine executes orders against a ledger store using prices from a quote
// source.
type Engine struct {
	store  ledger.Store
	quotes quotes.Source
	feed   TradeFeed
	log    *zap.Logger
	now    func() time.Time
}

// New creates an engine. A nil logger disables logging.
func New(store ledger.Store, src quotes.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		quotes: src,
		log:    logger,
		now:    time.Now,
	}
}

// SetFeed attaches a trade feed. Committed transactions are published to it.
func (e *Engine) SetFeed(f TradeFeed) {
	e.feed = f
}
