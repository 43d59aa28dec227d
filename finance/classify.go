/*
classify.go - Transaction classification

PURPOSE:
  Maps every transaction type to its effect on a period's balance and
  reserve pools. All other code derives signs from this table; nothing
  else switches on transaction types.

THE EFFECT TABLE:
  earning                       balance +amount
  payment/fixed, payment/variable   balance -amount
  reserve/stock                 stock +amount
  reserve/forward-payment       forward payments +amount
  compensation/stock            balance +amount, stock -amount
  compensation/forward-payment  balance +amount, forward payments -amount

  An unknown type is a fatal error for the enclosing operation.

SEE ALSO:
  - recalc.go: Applies these effects across the period chain
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESERVE TARGETS
// =============================================================================

// ReserveTarget names the pool an entry is earmarked for, if any.
type ReserveTarget string

const (
	ReserveNone    ReserveTarget = ""
	ReserveStock   ReserveTarget = "stock"
	ReserveForward ReserveTarget = "forward_payments"
)

// =============================================================================
// EFFECT - Signed contribution of one entry
// =============================================================================

// Effect describes how a single entry moves balance and reserves.
// Signs are +1, -1 or 0; the entry's non-negative amount is multiplied in.
type Effect struct {
	BalanceSign int
	Reserve     ReserveTarget
	ReserveSign int
}

// Classify returns the effect for a transaction type.
func Classify(t TransactionType) (Effect, error) {
	switch t {
	case TxEarning:
		return Effect{BalanceSign: +1}, nil
	case TxPaymentFixed, TxPaymentVariable:
		return Effect{BalanceSign: -1}, nil
	case TxReserveStock:
		return Effect{Reserve: ReserveStock, ReserveSign: +1}, nil
	case TxReserveForward:
		return Effect{Reserve: ReserveForward, ReserveSign: +1}, nil
	case TxCompensationStock:
		return Effect{BalanceSign: +1, Reserve: ReserveStock, ReserveSign: -1}, nil
	case TxCompensationForward:
		return Effect{BalanceSign: +1, Reserve: ReserveForward, ReserveSign: -1}, nil
	default:
		return Effect{}, fmtUnknownType(t)
	}
}

func fmtUnknownType(t TransactionType) error {
	return &unknownTypeError{Type: t}
}

type unknownTypeError struct {
	Type TransactionType
}

func (e *unknownTypeError) Error() string {
	return "unknown transaction type: " + string(e.Type)
}

func (e *unknownTypeError) Unwrap() error { return ErrUnknownTransactionType }

// =============================================================================
// AGGREGATION - Sum a batch of entries by type
// =============================================================================

// TransactionTotals aggregates a batch of entries by effect category.
// Used to turn a multi-entry deletion into a single cascading pass.
type TransactionTotals struct {
	Income       decimal.Decimal // earnings
	Outcome      decimal.Decimal // fixed + variable payments
	StockIncome  decimal.Decimal // contributions into stock
	StockSpent   decimal.Decimal // compensations out of stock
	ForwardIn    decimal.Decimal // contributions into forward payments
	ForwardSpent decimal.Decimal // compensations out of forward payments
}

// SpentReserves returns the combined compensation sum of the batch.
func (t TransactionTotals) SpentReserves() decimal.Decimal {
	return t.StockSpent.Add(t.ForwardSpent)
}

// SumByType aggregates items into totals. Fails on the first unknown type.
func SumByType(items []CashflowItem) (TransactionTotals, error) {
	var totals TransactionTotals
	for _, item := range items {
		switch item.Type {
		case TxEarning:
			totals.Income = totals.Income.Add(item.Amount)
		case TxPaymentFixed, TxPaymentVariable:
			totals.Outcome = totals.Outcome.Add(item.Amount)
		case TxReserveStock:
			totals.StockIncome = totals.StockIncome.Add(item.Amount)
		case TxReserveForward:
			totals.ForwardIn = totals.ForwardIn.Add(item.Amount)
		case TxCompensationStock:
			totals.StockSpent = totals.StockSpent.Add(item.Amount)
		case TxCompensationForward:
			totals.ForwardSpent = totals.ForwardSpent.Add(item.Amount)
		default:
			return TransactionTotals{}, fmtUnknownType(item.Type)
		}
	}
	return totals, nil
}
