package match

import "errors"

var (
	ErrInvalidParam = errors.New("the param is invalid")
	ErrShutdown     = errors.New("order book is shutting down")

	// ErrTimeout means the caller stopped waiting. The command may still run.
	ErrTimeout = errors.New("timeout")

	// ErrOverfill means a fill larger than the remaining size was attempted.
	// Only a matching engine defect can produce it.
	ErrOverfill = errors.New("overfill")

	// ErrSequenceGap is returned by AggregatedBook.Replay when a book log is missing.
	ErrSequenceGap = errors.New("book log sequence gap")
)
