package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these.
var (
	// ErrConfiguration marks a rule whose stored fields cannot be evaluated.
	// Not retried; the rule is skipped until the user fixes it.
	ErrConfiguration = errors.New("configuration error")

	// ErrStorage marks a ledger read or write failure.
	ErrStorage = errors.New("storage error")

	// ErrNotFound marks a row that no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks an insert that collides with an existing row.
	ErrDuplicate = errors.New("duplicate")

	// ErrCatchUpLimit is reported when a rule still has due occurrences after
	// the configured maximum number were materialized in one pass.
	ErrCatchUpLimit = errors.New("catch-up limit reached")
)

var (
	ErrInvalidDay            = fmt.Errorf("%w: invalid day", ErrConfiguration)
	ErrInvalidMonth          = fmt.Errorf("%w: invalid month", ErrConfiguration)
	ErrInvalidWeekday        = fmt.Errorf("%w: invalid weekday", ErrConfiguration)
	ErrInvalidRecurrenceType = fmt.Errorf("%w: invalid recurrence type", ErrConfiguration)

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
	ErrRuleNotFound    = fmt.Errorf("recurring rule %w", ErrNotFound)
	ErrTxNotFound      = fmt.Errorf("transaction %w", ErrNotFound)
	ErrCategoryMissing = fmt.Errorf("category %w", ErrNotFound)
)

// StorageError wraps err so that errors.Is(result, ErrStorage) holds while the
// driver error stays reachable.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
