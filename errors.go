package pricelog

import "errors"

// Failure kinds. Errors returned by this package wrap one of them so callers
// can branch with errors.Is.
var (
	// ErrDataUnavailable reports that a price could not be obtained for a
	// symbol. It is local to that symbol and never aborts a batch.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientHistory reports that fewer than two qualifying samples
	// exist for the requested computation. It is an "undefined" result, not
	// a zero.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrCorruptState reports an unreadable persisted ledger. The store is
	// recovered as empty.
	ErrCorruptState = errors.New("corrupt persisted state")

	// ErrConfiguration reports a missing or invalid holdings configuration.
	// It is fatal to a run.
	ErrConfiguration = errors.New("configuration error")
)
