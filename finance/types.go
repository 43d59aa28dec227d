/*
Package finance provides the budget period engine.

PURPOSE:
  This package contains the domain model and algorithms for a personal
  budget organized as a chronological chain of periods. Each period has
  an opening and closing balance plus two reserve pools (stock and
  forward payments), and a ledger of cashflow entries records every
  earning, payment, reserve contribution, and compensation.

KEY CONCEPTS IN THIS FILE (types.go):
  - TransactionType: The seven kinds of cashflow entries
  - CashflowItem: A single ledger entry (amount is always non-negative;
    direction is implied by the type)
  - CompensationAmount: A reserve withdrawal split across both pools
  - Period/Ledger/Chain IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Pure recalculation: balance updates are computed from an immutable
     snapshot plus a delta, never by mutating state in place
  3. Type Safety: Strong typing for IDs prevents mixing period/item IDs

SEE ALSO:
  - classify.go: Transaction classification and aggregation
  - recalc.go: Cascading balance recalculation
  - coordinator.go: Orchestration of ledger + period mutations
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PeriodID string
type UserID string
type ItemID string

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionType determines how an entry affects balances and reserves.
// The amount of an entry is always non-negative; sign and target are
// derived from the type (see classify.go).
type TransactionType string

const (
	TxEarning             TransactionType = "earning"                      // spendable income
	TxPaymentFixed        TransactionType = "payment/fixed"                // recurring outflow
	TxPaymentVariable     TransactionType = "payment/variable"             // one-off outflow
	TxReserveStock        TransactionType = "reserve/stock"                // earmarked into the stock pool
	TxReserveForward      TransactionType = "reserve/forward-payment"      // earmarked into the forward-payments pool
	TxCompensationStock   TransactionType = "compensation/stock"           // withdrawal from stock to cover a shortfall
	TxCompensationForward TransactionType = "compensation/forward-payment" // withdrawal from forward payments
)

// IsPayment reports whether t is one of the payment types.
func (t TransactionType) IsPayment() bool {
	return t == TxPaymentFixed || t == TxPaymentVariable
}

// IsReserve reports whether t contributes to a reserve pool.
func (t TransactionType) IsReserve() bool {
	return t == TxReserveStock || t == TxReserveForward
}

// IsCompensation reports whether t withdraws from a reserve pool.
func (t TransactionType) IsCompensation() bool {
	return t == TxCompensationStock || t == TxCompensationForward
}

// =============================================================================
// CASHFLOW ITEM - A single ledger entry
// =============================================================================

// CashflowItem is one entry of a period's ledger.
type CashflowItem struct {
	ID       ItemID
	PeriodID PeriodID
	Type     TransactionType
	Title    string
	Amount   decimal.Decimal
	Date     Date
}

// ItemDraft is a cashflow item before the store assigns its identifier.
type ItemDraft struct {
	PeriodID PeriodID
	Type     TransactionType
	Title    string
	Amount   decimal.Decimal
	Date     Date
}

// Item materializes the draft with the given id.
func (d ItemDraft) Item(id ItemID) CashflowItem {
	return CashflowItem{
		ID:       id,
		PeriodID: d.PeriodID,
		Type:     d.Type,
		Title:    d.Title,
		Amount:   d.Amount,
		Date:     d.Date,
	}
}

// =============================================================================
// AMOUNT BOUNDS
// =============================================================================

// MaxAmount is the upper bound accepted for a single entry's amount.
var MaxAmount = decimal.New(1, 11) // 100,000,000,000

// ValidAmount reports whether a is inside [0, MaxAmount].
func ValidAmount(a decimal.Decimal) bool {
	return !a.IsNegative() && a.LessThanOrEqual(MaxAmount)
}

// =============================================================================
// COMPENSATION AMOUNT
// =============================================================================

// CompensationAmount splits a shortfall across the two reserve pools.
type CompensationAmount struct {
	Stock           decimal.Decimal
	ForwardPayments decimal.Decimal
}

// Sum returns the total balance restored by the compensation.
func (c CompensationAmount) Sum() decimal.Decimal {
	return c.Stock.Add(c.ForwardPayments)
}
