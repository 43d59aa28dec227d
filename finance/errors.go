/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine never catches its own errors; they propagate to the
  coordinator, which decides whether any state is applied, and to the
  API layer, which maps them to HTTP statuses.

ERROR CATEGORIES:
  1. Validation errors - Bad input, rejected before any mutation
  2. Not-found errors  - Missing period/entry, fatal to the operation
  3. Persistence errors - Store failures, surfaced unchanged

USAGE:
  if finance.IsNotFound(err) { ... 404 ... }
  if finance.IsValidation(err) { ... 400 ... }
*/
package finance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownTransactionType is returned when an entry carries a type
	// outside the known set. Never ignored; the whole operation fails.
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrEntityNotFound is returned when a referenced period or ledger
	// entry does not exist. Fatal precondition; no state is touched.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrCompensationExceedsShortfall is returned when a compensation sum
	// is larger than the origin period's shortfall.
	ErrCompensationExceedsShortfall = errors.New("compensation exceeds shortfall")

	// ErrInsufficientReserve is returned when a compensation would pull a
	// reserve pool below zero.
	ErrInsufficientReserve = errors.New("insufficient reserve")

	// ErrInvalidAmount is returned when an amount is outside accepted bounds.
	ErrInvalidAmount = errors.New("amount outside accepted bounds")

	// ErrUneditableEntry is returned for field edits that the ledger does
	// not support, e.g. changing a compensation's amount. Delete the entry
	// and resubmit instead.
	ErrUneditableEntry = errors.New("entry does not support this edit")

	// ErrOutOfOrder is returned when a start date change or insertion would
	// break the chronological ordering of the period chain.
	ErrOutOfOrder = errors.New("periods must stay in chronological order")

	// ErrCrossPeriodBatch is returned when a batch deletion mixes entries
	// from more than one period. One batch has exactly one origin period.
	ErrCrossPeriodBatch = errors.New("batch deletion must stay within one period")

	// ErrDuplicateEntity is returned when a period or ledger entry with the
	// same id is inserted twice. Fatal precondition; no state is touched.
	ErrDuplicateEntity = errors.New("entity already exists")

	// ErrChainNotEmpty is returned when seeding is attempted on a chain
	// that already holds periods. Later periods are opened from their
	// predecessor so balances carry over.
	ErrChainNotEmpty = errors.New("chain already seeded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "period" or "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrEntityNotFound }

// DuplicateError identifies which entity was inserted twice.
type DuplicateError struct {
	Kind string // "period" or "transaction"
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateEntity }

// ShortfallError reports a compensation that exceeds the covered shortfall.
type ShortfallError struct {
	PeriodID  PeriodID
	Shortfall decimal.Decimal
	Requested decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("compensation %v exceeds shortfall %v of period %s",
		e.Requested, e.Shortfall, e.PeriodID)
}

func (e *ShortfallError) Unwrap() error { return ErrCompensationExceedsShortfall }

// ReserveError reports a withdrawal that would overdraw a reserve pool.
type ReserveError struct {
	PeriodID  PeriodID
	Pool      ReserveTarget
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *ReserveError) Error() string {
	return fmt.Sprintf("reserve %s of period %s holds %v, requested %v",
		e.Pool, e.PeriodID, e.Available, e.Requested)
}

func (e *ReserveError) Unwrap() error { return ErrInsufficientReserve }

// AmountError reports an amount outside [0, MaxAmount].
type AmountError struct {
	Amount decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount %v is outside accepted bounds [0, %v]", e.Amount, MaxAmount)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsValidation returns true if the error is due to invalid input and no
// state was changed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrCompensationExceedsShortfall) ||
		errors.Is(err, ErrInsufficientReserve) ||
		errors.Is(err, ErrUnknownTransactionType) ||
		errors.Is(err, ErrUneditableEntry) ||
		errors.Is(err, ErrOutOfOrder) ||
		errors.Is(err, ErrCrossPeriodBatch) ||
		errors.Is(err, ErrDuplicateEntity) ||
		errors.Is(err, ErrChainNotEmpty)
}
