package ledger

import "errors"

var (
	// ErrNotFound is returned when an account or holding does not exist.
	ErrNotFound = errors.New("ledger: not found")

	// ErrConflict is returned by ApplyOrder when the account row moved
	// between the caller's read and the commit.
	ErrConflict = errors.New("ledger: version conflict")
)
