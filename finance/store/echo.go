// Package store provides Persistence implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/budget-engine/finance"
)

// =============================================================================
// ECHO STORE - In-memory pass-through (for testing/dev)
// =============================================================================

// Echo models a reliable backend with no storage of its own: every call
// returns its input, with identifiers generated for creations. It mirrors
// the round-trip shape of a real backend without the latency.
type Echo struct {
	mu  sync.Mutex
	seq int
}

func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) nextID(prefix string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return fmt.Sprintf("%s-%d", prefix, e.seq)
}

func (e *Echo) CreatePeriod(_ context.Context, draft finance.PeriodDraft) (finance.Period, error) {
	return draft.Period(finance.PeriodID(e.nextID("per"))), nil
}

func (e *Echo) UpdatePeriodStartDate(_ context.Context, update finance.StartDateUpdate) (finance.StartDateUpdate, error) {
	return update, nil
}

func (e *Echo) UpdatePeriodBalances(_ context.Context, changes []finance.BalanceChange) ([]finance.BalanceChange, error) {
	return changes, nil
}

func (e *Echo) UpdatePeriodReserves(_ context.Context, changes []finance.ReserveChange) ([]finance.ReserveChange, error) {
	return changes, nil
}

func (e *Echo) UpdatePeriodCompensation(_ context.Context, changes []finance.PeriodChange) ([]finance.PeriodChange, error) {
	return changes, nil
}

func (e *Echo) CreateTransaction(_ context.Context, draft finance.ItemDraft) (finance.CashflowItem, error) {
	return draft.Item(finance.ItemID(e.nextID("txn"))), nil
}

func (e *Echo) UpdateTransactionField(_ context.Context, update finance.TransactionFieldUpdate) (finance.TransactionFieldUpdate, error) {
	return update, nil
}

func (e *Echo) DeleteTransactions(_ context.Context, ids []finance.ItemID) ([]finance.ItemID, error) {
	return ids, nil
}

func (e *Echo) DeletePeriod(_ context.Context, id finance.PeriodID) (finance.PeriodID, error) {
	return id, nil
}
