/*
recalc.go - Cascading balance recalculation

PURPOSE:
  The pure core of the engine. Every mutation reduces to: given the
  chronological period snapshot and the index of the origin period (the
  one containing the triggering change), produce new start/end balances
  and reserve levels for the origin and every later period.

THE ONE RULE:
  A delta originating inside a period never moves that period's own
  opening balance; it was fixed before the change happened. Only the
  origin's closing balance and reserves move. Every later period shifts
  opening and closing balance by the same delta, because its opening
  point is its predecessor's closing balance.

SNAPSHOT DISCIPLINE:
  All functions compute each period's new values from the pre-mutation
  snapshot plus a uniform delta. No partial results are threaded from
  one period to the next, so a pass is idempotent with respect to its
  inputs and order within the pass cannot matter.

SEE ALSO:
  - classify.go: Where the deltas' signs come from
  - coordinator.go: Persists and applies the returned change sets
*/
package finance

import "github.com/shopspring/decimal"

// =============================================================================
// CHANGE SETS - What a recalculation pass produces
// =============================================================================

// BalanceChange carries a period's new opening and closing balance.
type BalanceChange struct {
	ID           PeriodID
	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
}

// ReserveChange carries a period's new reserve levels.
type ReserveChange struct {
	ID              PeriodID
	Stock           decimal.Decimal
	ForwardPayments decimal.Decimal
}

// PeriodChange carries new balances and reserves together.
type PeriodChange struct {
	ID              PeriodID
	StartBalance    decimal.Decimal
	EndBalance      decimal.Decimal
	Stock           decimal.Decimal
	ForwardPayments decimal.Decimal
}

// =============================================================================
// RECALCULATION PASSES
// =============================================================================

// StartBalanceChanged recomputes balances after the user overwrites a
// period's opening balance. The difference to the old value shifts every
// period in the suffix, the origin included: here the opening balance IS
// the edited field. Reserves are untouched.
func StartBalanceChanged(periods []Period, origin int, newStart decimal.Decimal) []BalanceChange {
	if origin < 0 || origin >= len(periods) {
		return nil
	}
	diff := newStart.Sub(periods[origin].StartBalance)

	changes := make([]BalanceChange, 0, len(periods)-origin)
	for _, p := range periods[origin:] {
		changes = append(changes, BalanceChange{
			ID:           p.ID,
			StartBalance: p.StartBalance.Add(diff),
			EndBalance:   p.EndBalance.Add(diff),
		})
	}
	return changes
}

// BalanceShifted recomputes balances after an earning or payment was
// added, edited, or deleted. delta is the signed balance movement:
// positive for new income, negative for new outflow, and the signed
// difference for edits and deletions.
func BalanceShifted(periods []Period, origin int, delta decimal.Decimal) []BalanceChange {
	if origin < 0 || origin >= len(periods) {
		return nil
	}

	changes := make([]BalanceChange, 0, len(periods)-origin)
	for i := origin; i < len(periods); i++ {
		p := periods[i]
		start := p.StartBalance
		if i > origin {
			start = start.Add(delta)
		}
		changes = append(changes, BalanceChange{
			ID:           p.ID,
			StartBalance: start,
			EndBalance:   p.EndBalance.Add(delta),
		})
	}
	return changes
}

// ReserveShifted recomputes reserve levels after a contribution was
// added, edited, or deleted. Reserves are cumulative pools carried
// forward, so the origin and every later period move by the same signed
// amount; balances are untouched in all periods.
func ReserveShifted(periods []Period, origin int, target ReserveTarget, amount decimal.Decimal) ([]ReserveChange, error) {
	if target != ReserveStock && target != ReserveForward {
		return nil, fmtUnknownType(TransactionType(target))
	}
	if origin < 0 || origin >= len(periods) {
		return nil, nil
	}

	changes := make([]ReserveChange, 0, len(periods)-origin)
	for _, p := range periods[origin:] {
		ch := ReserveChange{ID: p.ID, Stock: p.Stock, ForwardPayments: p.ForwardPayments}
		if target == ReserveStock {
			ch.Stock = ch.Stock.Add(amount)
		} else {
			ch.ForwardPayments = ch.ForwardPayments.Add(amount)
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// CompensationSubmitted recomputes balances and reserves after a reserve
// withdrawal covering the origin period's shortfall. The whole sum flows
// into the closing balance of the origin and carries through every later
// period; the pools drop everywhere by the withdrawn parts.
//
// Preconditions, checked against the origin before anything is produced:
// the sum must not exceed the shortfall, and neither part may overdraw
// its pool.
func CompensationSubmitted(periods []Period, origin int, comp CompensationAmount) ([]PeriodChange, error) {
	if origin < 0 || origin >= len(periods) {
		return nil, nil
	}
	if comp.Stock.IsNegative() || comp.ForwardPayments.IsNegative() {
		return nil, &AmountError{Amount: comp.Sum()}
	}

	p := periods[origin]
	sum := comp.Sum()
	if sum.GreaterThan(p.Shortfall()) {
		return nil, &ShortfallError{PeriodID: p.ID, Shortfall: p.Shortfall(), Requested: sum}
	}
	if comp.Stock.GreaterThan(p.Stock) {
		return nil, &ReserveError{PeriodID: p.ID, Pool: ReserveStock, Available: p.Stock, Requested: comp.Stock}
	}
	if comp.ForwardPayments.GreaterThan(p.ForwardPayments) {
		return nil, &ReserveError{PeriodID: p.ID, Pool: ReserveForward, Available: p.ForwardPayments, Requested: comp.ForwardPayments}
	}

	changes := make([]PeriodChange, 0, len(periods)-origin)
	for i := origin; i < len(periods); i++ {
		q := periods[i]
		start := q.StartBalance
		if i > origin {
			start = start.Add(sum)
		}
		changes = append(changes, PeriodChange{
			ID:              q.ID,
			StartBalance:    start,
			EndBalance:      q.EndBalance.Add(sum),
			Stock:           q.Stock.Sub(comp.Stock),
			ForwardPayments: q.ForwardPayments.Sub(comp.ForwardPayments),
		})
	}
	return changes, nil
}

// TransactionsDeleted recomputes balances and reserves after a batch of
// entries was removed from the period at index `from`. The batch is
// aggregated into totals first so the suffix is walked exactly once.
//
// originDeleted marks the cascade that runs when the origin period itself
// is being removed; the suffix then starts at its successor and there is
// no period whose opening balance stays pinned.
func TransactionsDeleted(periods []Period, from int, totals TransactionTotals, originDeleted bool) []PeriodChange {
	if from < 0 || from >= len(periods) {
		return nil
	}

	// Removing entries reverses their effects: payments return money,
	// earnings take it away, compensations give back both the spent pool
	// and the balance they had restored.
	balanceShift := totals.Outcome.Sub(totals.Income).Sub(totals.SpentReserves())
	stockShift := totals.StockSpent.Sub(totals.StockIncome)
	forwardShift := totals.ForwardSpent.Sub(totals.ForwardIn)

	changes := make([]PeriodChange, 0, len(periods)-from)
	for i := from; i < len(periods); i++ {
		p := periods[i]
		start := p.StartBalance
		if i > from || originDeleted {
			start = start.Add(balanceShift)
		}
		changes = append(changes, PeriodChange{
			ID:              p.ID,
			StartBalance:    start,
			EndBalance:      p.EndBalance.Add(balanceShift),
			Stock:           p.Stock.Add(stockShift),
			ForwardPayments: p.ForwardPayments.Add(forwardShift),
		})
	}
	return changes
}
