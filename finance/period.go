package finance

import "github.com/shopspring/decimal"

// =============================================================================
// PERIOD - One budget interval
// =============================================================================

// Period is one budget interval. Its opening balance equals the previous
// period's closing balance once a mutation has settled; the reserve pools
// are cumulative and carried forward.
type Period struct {
	ID              PeriodID
	UserID          UserID
	StartDate       Date
	StartBalance    decimal.Decimal
	EndBalance      decimal.Decimal
	Stock           decimal.Decimal
	ForwardPayments decimal.Decimal
}

// Shortfall returns how far the closing balance is below zero.
func (p Period) Shortfall() decimal.Decimal {
	if p.EndBalance.IsNegative() {
		return p.EndBalance.Neg()
	}
	return decimal.Zero
}

// Reserve returns the level of the named pool.
func (p Period) Reserve(target ReserveTarget) decimal.Decimal {
	if target == ReserveForward {
		return p.ForwardPayments
	}
	return p.Stock
}

// PeriodDraft is a period before the store assigns its identifier.
type PeriodDraft struct {
	UserID          UserID
	StartDate       Date
	StartBalance    decimal.Decimal
	EndBalance      decimal.Decimal
	Stock           decimal.Decimal
	ForwardPayments decimal.Decimal
}

// Period materializes the draft with the given id.
func (d PeriodDraft) Period(id PeriodID) Period {
	return Period{
		ID:              id,
		UserID:          d.UserID,
		StartDate:       d.StartDate,
		StartBalance:    d.StartBalance,
		EndBalance:      d.EndBalance,
		Stock:           d.Stock,
		ForwardPayments: d.ForwardPayments,
	}
}

// NextDraft derives the draft for the period following p: it opens with
// p's closing balance and inherits the reserve pools.
func (p Period) NextDraft(startDate Date) PeriodDraft {
	return PeriodDraft{
		UserID:          p.UserID,
		StartDate:       startDate,
		StartBalance:    p.EndBalance,
		EndBalance:      p.EndBalance,
		Stock:           p.Stock,
		ForwardPayments: p.ForwardPayments,
	}
}
