package engine

import "errors"

// Order failures the API layer maps onto HTTP statuses. Wrapped causes stay
// inspectable through errors.Is / errors.As.
var (
	ErrInvalidOrder       = errors.New("engine: invalid order")
	ErrAccountNotFound    = errors.New("engine: account not found")
	ErrPriceUnavailable   = errors.New("engine: price unavailable")
	ErrInsufficientFunds  = errors.New("engine: insufficient funds")
	ErrInsufficientShares = errors.New("engine: insufficient shares")
	ErrConflict           = errors.New("engine: account modified concurrently")
	ErrStoreUnavailable   = errors.New("engine: store unavailable")
)
