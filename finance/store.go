/*
store.go - Persistence boundary

PURPOSE:
  Defines the interface between the engine and whatever stores its data.
  Every operation is echo-shaped: the input shape equals the output
  shape, and the reference implementation simply hands values back with
  generated identifiers. A real backend may transform timestamps or ids;
  callers therefore always apply the RETURNED values, never their input.

FAILURE MODEL:
  A failed call leaves in-memory state at its pre-mutation snapshot. The
  coordinator only applies changes after every persistence step of an
  operation succeeded, so retrying the whole operation is safe: inputs
  are deterministic deltas against a snapshot.

IMPLEMENTATIONS:
  - finance/store: in-memory echo (tests, dev)
  - store/sqlite:  SQLite-backed persistence
*/
package finance

import "context"

// StartDateUpdate moves a period to a new start date.
type StartDateUpdate struct {
	PeriodID     PeriodID
	NewStartDate Date
}

// TransactionFieldUpdate is a field-level edit of one ledger entry.
type TransactionFieldUpdate struct {
	ItemID ItemID
	FieldUpdate
}

// Persistence is the engine's only external boundary.
type Persistence interface {
	// CreatePeriod persists a new period and returns it with its id.
	CreatePeriod(ctx context.Context, draft PeriodDraft) (Period, error)

	// UpdatePeriodStartDate persists a start date change.
	UpdatePeriodStartDate(ctx context.Context, update StartDateUpdate) (StartDateUpdate, error)

	// UpdatePeriodBalances persists new opening/closing balances.
	UpdatePeriodBalances(ctx context.Context, changes []BalanceChange) ([]BalanceChange, error)

	// UpdatePeriodReserves persists new reserve levels.
	UpdatePeriodReserves(ctx context.Context, changes []ReserveChange) ([]ReserveChange, error)

	// UpdatePeriodCompensation persists combined balance+reserve changes.
	UpdatePeriodCompensation(ctx context.Context, changes []PeriodChange) ([]PeriodChange, error)

	// CreateTransaction persists a new ledger entry and returns it with its id.
	CreateTransaction(ctx context.Context, draft ItemDraft) (CashflowItem, error)

	// UpdateTransactionField persists a field-level entry edit.
	UpdateTransactionField(ctx context.Context, update TransactionFieldUpdate) (TransactionFieldUpdate, error)

	// DeleteTransactions persists a batch deletion and returns the deleted ids.
	DeleteTransactions(ctx context.Context, ids []ItemID) ([]ItemID, error)

	// DeletePeriod persists a period deletion and returns the deleted id.
	DeletePeriod(ctx context.Context, id PeriodID) (PeriodID, error)
}
